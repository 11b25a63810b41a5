package component

import (
	"errors"
	"fmt"
	"maps"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

const (
	SimpleInputType = "simple"
	ChainInputType  = "chain"
)

// SimpleInput loads a static payload.
type SimpleInput struct {
	payload map[string]any
}

// NewSimpleInput copies payload.
func NewSimpleInput(payload map[string]any) *SimpleInput {
	return &SimpleInput{payload: maps.Clone(payload)}
}

func newSimpleInput(params map[string]any) (watch.Component, error) {
	return NewSimpleInput(params), nil
}

func (s *SimpleInput) Type() string { return SimpleInputType }

func (s *SimpleInput) WriteBody(b *doc.Builder) error {
	if s.payload == nil {
		b.StartObject().EndObject()
		return b.Err()
	}
	b.Value(s.payload)
	return b.Err()
}

// NamedInput is one step of a ChainInput.
type NamedInput struct {
	Name  string
	Input watch.Input
}

// ChainInput runs inputs in order; each result is stored under its name.
type ChainInput struct {
	inputs []NamedInput
}

// NewChainInput requires at least one input and unique, non-empty names.
func NewChainInput(inputs ...NamedInput) (*ChainInput, error) {
	if len(inputs) == 0 {
		return nil, errors.New("chain input needs at least one input")
	}
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		switch {
		case in.Name == "":
			return nil, fmt.Errorf("inputs[%d]: name is required", i)
		case seen[in.Name]:
			return nil, fmt.Errorf("inputs[%d]: duplicate name %q", i, in.Name)
		case in.Input == nil:
			return nil, fmt.Errorf("inputs[%d]: input is required", i)
		}
		seen[in.Name] = true
	}
	return &ChainInput{inputs: append([]NamedInput(nil), inputs...)}, nil
}

func newChainInput(r *Registry, params map[string]any) (watch.Component, error) {
	raw, ok := params["inputs"].([]any)
	if !ok {
		return nil, errors.New("inputs must be a list")
	}
	inputs := make([]NamedInput, 0, len(raw))
	for i, elem := range raw {
		def, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("inputs[%d] must be a mapping", i)
		}
		name, err := stringParam(def, "name", true)
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		tag, err := stringParam(def, "type", true)
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		sub, err := mapParam(def, "params")
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		in, err := r.New(KindInput, tag, sub)
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		inputs = append(inputs, NamedInput{Name: name, Input: in})
	}
	return nonNil(NewChainInput(inputs...))
}

func (c *ChainInput) Type() string { return ChainInputType }

// WriteBody writes {"inputs": [{"<name>": {"<type>": <body>}}, ...]}.
func (c *ChainInput) WriteBody(b *doc.Builder) error {
	b.StartObject().Field("inputs").StartArray()
	for _, in := range c.inputs {
		b.StartObject().Field(in.Name).StartObject().Field(in.Input.Type())
		if err := b.Err(); err != nil {
			return err
		}
		if err := in.Input.WriteBody(b); err != nil {
			return fmt.Errorf("%s: %w", in.Name, err)
		}
		b.EndObject().EndObject()
	}
	b.EndArray().EndObject()
	return b.Err()
}
