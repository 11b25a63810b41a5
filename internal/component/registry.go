package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

// Kind names the slot a component fills in a watch.
type Kind string

const (
	KindTrigger   Kind = "trigger"
	KindInput     Kind = "input"
	KindCondition Kind = "condition"
	KindTransform Kind = "transform"
	KindAction    Kind = "action"
)

// Factory builds a component from its config params.
type Factory func(params map[string]any) (watch.Component, error)

// Registry maps (kind, type tag) to a Factory.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]map[string]Factory)}
}

// Register adds a factory. Panics on duplicate (kind, tag) to surface misconfiguration early.
func (r *Registry) Register(kind Kind, tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byTag, ok := r.factories[kind]
	if !ok {
		byTag = make(map[string]Factory)
		r.factories[kind] = byTag
	}
	if _, exists := byTag[tag]; exists {
		panic(fmt.Sprintf("component registry: duplicate %s type %q", kind, tag))
	}
	byTag[tag] = f
}

// New builds the component registered under (kind, tag).
func (r *Registry) New(kind Kind, tag string, params map[string]any) (watch.Component, error) {
	r.mu.RLock()
	f, ok := r.factories[kind][tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no %s registered for type %q", kind, tag)
	}
	c, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, tag, err)
	}
	return c, nil
}

// Types returns the sorted type tags registered for kind.
func (r *Registry) Types(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories[kind]))
	for k := range r.factories[kind] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with every built-in component.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(KindTrigger, ScheduleType, newSchedule)

	r.Register(KindInput, "none", func(map[string]any) (watch.Component, error) { return watch.NoneInput, nil })
	r.Register(KindInput, SimpleInputType, newSimpleInput)
	r.Register(KindInput, ChainInputType, func(params map[string]any) (watch.Component, error) {
		return newChainInput(r, params)
	})

	r.Register(KindCondition, "always", func(map[string]any) (watch.Component, error) { return watch.AlwaysCondition, nil })
	r.Register(KindCondition, NeverConditionType, func(map[string]any) (watch.Component, error) { return NeverCondition, nil })
	r.Register(KindCondition, CompareConditionType, newCompare)
	r.Register(KindCondition, ScriptType, newScript)

	r.Register(KindTransform, ScriptType, newScript)

	r.Register(KindAction, LoggingActionType, newLogging)
	r.Register(KindAction, EmailActionType, newEmail)
	r.Register(KindAction, WebhookActionType, newWebhook)
	r.Register(KindAction, IndexActionType, newIndex)

	return r
}
