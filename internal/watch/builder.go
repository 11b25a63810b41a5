package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
)

// SourceBuilder accumulates the parts of a watch and renders them into a
// watch source document. Every setter returns the builder for chaining.
//
// A SourceBuilder is not safe for concurrent mutation. Serializing never
// mutates it, so one builder can be rendered any number of times.
type SourceBuilder struct {
	trigger               Trigger
	input                 Input
	condition             Condition
	transform             Transform
	defaultThrottlePeriod *time.Duration
	actionIDs             []string // insertion order
	actions               map[string]*actionBundle
	metadata              *doc.Object
	metadataErr           error
}

// NewSourceBuilder returns a builder with the none input, the always
// condition and no actions.
func NewSourceBuilder() *SourceBuilder {
	return &SourceBuilder{
		input:     NoneInput,
		condition: AlwaysCondition,
		actions:   make(map[string]*actionBundle),
	}
}

// Trigger sets the trigger. A watch cannot be serialized without one.
func (s *SourceBuilder) Trigger(t Trigger) *SourceBuilder {
	s.trigger = t
	return s
}

// Input sets the input. nil restores NoneInput.
func (s *SourceBuilder) Input(i Input) *SourceBuilder {
	if i == nil {
		i = NoneInput
	}
	s.input = i
	return s
}

// Condition sets the watch condition. nil restores AlwaysCondition.
func (s *SourceBuilder) Condition(c Condition) *SourceBuilder {
	if c == nil {
		c = AlwaysCondition
	}
	s.condition = c
	return s
}

// Transform sets the watch transform. nil clears it.
func (s *SourceBuilder) Transform(t Transform) *SourceBuilder {
	s.transform = t
	return s
}

// DefaultThrottlePeriod sets the throttle period applied to actions that do
// not override it. Zero means no throttling.
func (s *SourceBuilder) DefaultThrottlePeriod(d time.Duration) *SourceBuilder {
	s.defaultThrottlePeriod = &d
	return s
}

// ClearDefaultThrottlePeriod removes the default throttle period.
func (s *SourceBuilder) ClearDefaultThrottlePeriod() *SourceBuilder {
	s.defaultThrottlePeriod = nil
	return s
}

// AddAction stores action under id with the given overrides. Adding an id
// that already exists replaces its entry and keeps its position.
// It panics if action is nil.
func (s *SourceBuilder) AddAction(id string, action Action, opts ...ActionOption) *SourceBuilder {
	if action == nil {
		panic(fmt.Sprintf("watch: nil action for id %q", id))
	}
	a := &actionBundle{id: id, action: action}
	for _, opt := range opts {
		opt(a)
	}
	if s.actions == nil {
		s.actions = make(map[string]*actionBundle)
	}
	if _, exists := s.actions[id]; !exists {
		s.actionIDs = append(s.actionIDs, id)
	}
	s.actions[id] = a
	return s
}

// Metadata sets free-form metadata; nil or empty clears it. m is copied
// deeply, so later changes to it or to anything nested in it do not reach the
// document. A value that cannot be rendered is reported by ToDocument.
func (s *SourceBuilder) Metadata(m map[string]any) *SourceBuilder {
	s.metadata, s.metadataErr = nil, nil
	if len(m) == 0 {
		return s
	}
	v, err := doc.Normalize(m)
	if err != nil {
		s.metadataErr = err
		return s
	}
	s.metadata = v.(*doc.Object)
	return s
}

// HasTrigger reports whether a trigger has been set.
func (s *SourceBuilder) HasTrigger() bool {
	return s.trigger != nil
}

// ActionIDs returns the action ids in the order they will be rendered.
func (s *SourceBuilder) ActionIDs() []string {
	out := make([]string, len(s.actionIDs))
	copy(out, s.actionIDs)
	return out
}

// WriteBody writes the watch source object into b.
func (s *SourceBuilder) WriteBody(b *doc.Builder) error {
	b.StartObject()

	if s.trigger == nil {
		return &MissingRequiredFieldError{Field: FieldTrigger}
	}
	if err := writeWrapped(b, FieldTrigger, s.trigger); err != nil {
		return err
	}
	input := s.input
	if input == nil {
		input = NoneInput
	}
	if err := writeWrapped(b, FieldInput, input); err != nil {
		return err
	}
	condition := s.condition
	if condition == nil {
		condition = AlwaysCondition
	}
	if err := writeWrapped(b, FieldCondition, condition); err != nil {
		return err
	}
	if s.transform != nil {
		if err := writeWrapped(b, FieldTransform, s.transform); err != nil {
			return err
		}
	}
	if s.defaultThrottlePeriod != nil {
		b.TimeField(FieldThrottlePeriod, FieldThrottlePeriodHuman, *s.defaultThrottlePeriod)
		if err := b.Err(); err != nil {
			return err
		}
	}

	b.Field(FieldActions).StartObject()
	for _, id := range s.actionIDs {
		a := s.actions[id]
		b.Field(id)
		if err := a.WriteBody(b); err != nil {
			return fmt.Errorf("%s: %s: %w", FieldActions, a.id, err)
		}
	}
	b.EndObject()

	if s.metadataErr != nil {
		return fmt.Errorf("%s: %w", FieldMetadata, s.metadataErr)
	}
	if s.metadata != nil {
		b.KeyValue(FieldMetadata, s.metadata)
		if err := b.Err(); err != nil {
			return fmt.Errorf("%s: %w", FieldMetadata, err)
		}
	}

	b.EndObject()
	return b.Err()
}

// ToDocument validates the builder and renders the watch source tree.
// It returns *MissingRequiredFieldError when no trigger is set and
// *SerializationError when any part cannot be written. No partial tree is
// ever returned.
func (s *SourceBuilder) ToDocument() (*doc.Object, error) {
	b := doc.NewBuilder()
	if err := s.WriteBody(b); err != nil {
		var missing *MissingRequiredFieldError
		if errors.As(err, &missing) {
			return nil, err
		}
		return nil, &SerializationError{Op: "build", Err: err}
	}
	obj, err := b.Object()
	if err != nil {
		return nil, &SerializationError{Op: "build", Err: err}
	}
	return obj, nil
}

// ToBytes renders the watch source tree and encodes it as ct.
func (s *SourceBuilder) ToBytes(ct doc.ContentType) ([]byte, error) {
	obj, err := s.ToDocument()
	if err != nil {
		return nil, err
	}
	out, err := doc.Encode(obj, ct)
	if err != nil {
		return nil, &SerializationError{Op: "encode " + ct.String(), Err: err}
	}
	return out, nil
}

// MarshalJSON encodes the watch source as compact JSON.
func (s *SourceBuilder) MarshalJSON() ([]byte, error) {
	return s.ToBytes(doc.JSON)
}
