package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the config for:
//   - Duplicate watch ids, and duplicate action ids within a watch
//   - Missing trigger and component types
//   - Throttle periods that do not parse or are negative
//
// All problems are reported together.
func Validate(cfg *WatchConfig) error {
	if cfg.Version == "" {
		return &ValidationError{Problems: []string{"version is required"}}
	}
	if cfg.Render.ExportWorkers < 0 {
		return &ValidationError{Problems: []string{"render.export_workers must not be negative"}}
	}
	if cfg.Render.CacheSize < 0 {
		return &ValidationError{Problems: []string{"render.cache_size must not be negative"}}
	}
	ids := make(map[string]int) // id → index
	var errs []string

	for i, w := range cfg.Watches {
		if w.ID == "" {
			errs = append(errs, fmt.Sprintf("watches[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("watch %s", w.ID)
		if prev, ok := ids[w.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate watch id %q (watches[%d] and watches[%d])", w.ID, prev, i))
		} else {
			ids[w.ID] = i
		}
		if w.Trigger == nil {
			errs = append(errs, fmt.Sprintf("%s: trigger is required", loc))
		} else {
			validateComponent(w.Trigger, loc+".trigger", &errs)
		}
		validateComponent(w.Input, loc+".input", &errs)
		validateComponent(w.Condition, loc+".condition", &errs)
		validateComponent(w.Transform, loc+".transform", &errs)
		validateDuration(w.ThrottlePeriod, loc+".throttle_period", &errs)
		validateActions(w.Actions, loc, &errs)
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// ValidationError lists every problem found in a watch file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation errors:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

func validateActions(actions []ActionDef, parent string, errs *[]string) {
	seen := make(map[string]bool, len(actions))
	for j, a := range actions {
		if a.ID == "" {
			*errs = append(*errs, fmt.Sprintf("%s.actions[%d]: id is required", parent, j))
			continue
		}
		loc := fmt.Sprintf("%s action %s", parent, a.ID)
		if seen[a.ID] {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate action id %q", parent, a.ID))
		}
		seen[a.ID] = true
		if a.Type == "" {
			*errs = append(*errs, fmt.Sprintf("%s: type is required", loc))
		}
		validateComponent(a.Condition, loc+".condition", errs)
		validateComponent(a.Transform, loc+".transform", errs)
		validateDuration(a.ThrottlePeriod, loc+".throttle_period", errs)
	}
}

func validateComponent(c *ComponentDef, loc string, errs *[]string) {
	if c != nil && c.Type == "" {
		*errs = append(*errs, fmt.Sprintf("%s: type is required", loc))
	}
}

func validateDuration(s, loc string, errs *[]string) {
	if s == "" {
		return
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		*errs = append(*errs, fmt.Sprintf("%s: %v", loc, err))
	case d < 0:
		*errs = append(*errs, fmt.Sprintf("%s: must not be negative", loc))
	}
}

// ParseThrottle parses an optional throttle period. Empty means unset.
func ParseThrottle(s string) (*time.Duration, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, err
	}
	if d < 0 {
		return nil, fmt.Errorf("throttle period %s is negative", s)
	}
	return &d, nil
}
