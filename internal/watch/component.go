package watch

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
)

// Component is a tagged part of a watch. Its body is nested under its tag:
//
//	"<Type()>": <body written by WriteBody>
type Component interface {
	// Type returns the tag the body is nested under. Must be non-empty and
	// stable across calls.
	Type() string
	// WriteBody writes exactly one value into the builder's current slot.
	// It never writes the enclosing key.
	WriteBody(b *doc.Builder) error
}

// Variant names, used for documentation at call sites.
type (
	Trigger   = Component
	Input     = Component
	Condition = Component
	Transform = Component
	Action    = Component
)

// writeWrapped writes `key: {<tag>: <body>}`.
func writeWrapped(b *doc.Builder, key string, c Component) error {
	b.Field(key).StartObject()
	if err := writeTagged(b, c); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	b.EndObject()
	return b.Err()
}

// writeTagged writes `<tag>: <body>` into the innermost open object.
func writeTagged(b *doc.Builder, c Component) error {
	tag := c.Type()
	if tag == "" {
		return fmt.Errorf("component %T has an empty type", c)
	}
	b.Field(tag)
	if err := b.Err(); err != nil {
		return err
	}
	depth := b.Depth()
	if err := c.WriteBody(b); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	if err := b.Err(); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	switch {
	case b.Depth() != depth:
		return fmt.Errorf("%s: body left containers unbalanced", tag)
	case b.FieldPending():
		return fmt.Errorf("%s: %w", tag, errEmptyBody)
	}
	return nil
}

var errEmptyBody = errors.New("component wrote no body")
