package catalog

import (
	"fmt"

	"github.com/gyaneshwarpardhi/watchsource/internal/component"
	"github.com/gyaneshwarpardhi/watchsource/internal/config"
	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

// Build compiles a validated WatchConfig into a Catalog.
// Every component is constructed and every watch rendered once here, so a
// catalog that builds can always be served.
func Build(cfg *config.WatchConfig, reg *component.Registry) (*Catalog, error) {
	c := New()
	for _, wd := range cfg.Watches {
		e, err := buildWatch(wd, reg)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", wd.ID, err)
		}
		c.add(e)
	}
	return c, nil
}

func buildWatch(wd config.WatchDef, reg *component.Registry) (*Entry, error) {
	s := watch.NewSourceBuilder()
	if wd.Trigger == nil {
		return nil, fmt.Errorf("trigger is required")
	}
	trigger, err := reg.New(component.KindTrigger, wd.Trigger.Type, wd.Trigger.Params)
	if err != nil {
		return nil, err
	}
	s.Trigger(trigger)

	input, err := optional(reg, component.KindInput, wd.Input)
	if err != nil {
		return nil, err
	}
	s.Input(input)

	cond, err := optional(reg, component.KindCondition, wd.Condition)
	if err != nil {
		return nil, err
	}
	s.Condition(cond)

	transform, err := optional(reg, component.KindTransform, wd.Transform)
	if err != nil {
		return nil, err
	}
	s.Transform(transform)

	throttle, err := config.ParseThrottle(wd.ThrottlePeriod)
	if err != nil {
		return nil, fmt.Errorf("throttle_period: %w", err)
	}
	if throttle != nil {
		s.DefaultThrottlePeriod(*throttle)
	}

	for _, ad := range wd.Actions {
		if err := addAction(s, ad, reg); err != nil {
			return nil, fmt.Errorf("action %s: %w", ad.ID, err)
		}
	}
	s.Metadata(wd.Metadata)

	obj, err := s.ToDocument()
	if err != nil {
		return nil, err
	}
	fp, err := doc.Fingerprint(obj)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	rev, err := doc.Revision(obj)
	if err != nil {
		return nil, fmt.Errorf("revision: %w", err)
	}
	return &Entry{ID: wd.ID, Description: wd.Description, Source: s, Fingerprint: fp, Revision: rev}, nil
}

func addAction(s *watch.SourceBuilder, ad config.ActionDef, reg *component.Registry) error {
	action, err := reg.New(component.KindAction, ad.Type, ad.Params)
	if err != nil {
		return err
	}
	var opts []watch.ActionOption
	throttle, err := config.ParseThrottle(ad.ThrottlePeriod)
	if err != nil {
		return fmt.Errorf("throttle_period: %w", err)
	}
	if throttle != nil {
		opts = append(opts, watch.WithThrottlePeriod(*throttle))
	}
	cond, err := optional(reg, component.KindCondition, ad.Condition)
	if err != nil {
		return err
	}
	if cond != nil {
		opts = append(opts, watch.WithCondition(cond))
	}
	transform, err := optional(reg, component.KindTransform, ad.Transform)
	if err != nil {
		return err
	}
	if transform != nil {
		opts = append(opts, watch.WithTransform(transform))
	}
	s.AddAction(ad.ID, action, opts...)
	return nil
}

// optional builds def, or returns nil when def is absent.
func optional(reg *component.Registry, kind component.Kind, def *config.ComponentDef) (watch.Component, error) {
	if def == nil {
		return nil, nil
	}
	return reg.New(kind, def.Type, def.Params)
}
