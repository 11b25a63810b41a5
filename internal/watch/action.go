package watch

import (
	"time"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
)

// actionBundle is one entry of the actions object: the action itself plus
// the overrides that apply to it alone.
type actionBundle struct {
	id             string
	action         Action
	throttlePeriod *time.Duration
	condition      Condition
	transform      Transform
}

// ActionOption sets an optional per-action override in AddAction.
type ActionOption func(*actionBundle)

// WithThrottlePeriod overrides the watch's default throttle period for this
// action.
func WithThrottlePeriod(d time.Duration) ActionOption {
	return func(a *actionBundle) { a.throttlePeriod = &d }
}

// WithCondition gates this action with its own condition, evaluated in
// addition to the watch condition. A nil condition leaves the action ungated.
func WithCondition(c Condition) ActionOption {
	return func(a *actionBundle) { a.condition = c }
}

// WithTransform gives this action its own transform. A nil transform means
// no override.
func WithTransform(t Transform) ActionOption {
	return func(a *actionBundle) { a.transform = t }
}

// WriteBody writes the entry object: throttle fields, condition, transform,
// then the action's own tag and body as a sibling of the overrides.
func (a *actionBundle) WriteBody(b *doc.Builder) error {
	b.StartObject()
	if a.throttlePeriod != nil {
		b.TimeField(ActionFieldThrottlePeriod, ActionFieldThrottlePeriodHuman, *a.throttlePeriod)
		if err := b.Err(); err != nil {
			return err
		}
	}
	if a.condition != nil {
		if err := writeWrapped(b, ActionFieldCondition, a.condition); err != nil {
			return err
		}
	}
	if a.transform != nil {
		if err := writeWrapped(b, ActionFieldTransform, a.transform); err != nil {
			return err
		}
	}
	if err := writeTagged(b, a.action); err != nil {
		return err
	}
	b.EndObject()
	return b.Err()
}
