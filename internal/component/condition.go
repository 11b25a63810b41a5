package component

import (
	"errors"
	"fmt"
	"maps"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

const (
	NeverConditionType   = "never"
	CompareConditionType = "compare"
	ScriptType           = "script"
)

type never struct{}

func (never) Type() string { return NeverConditionType }

func (never) WriteBody(b *doc.Builder) error {
	b.StartObject().EndObject()
	return b.Err()
}

// NeverCondition never passes. Useful to disable one action.
var NeverCondition watch.Condition = never{}

// CompareOp is a comparison operator of a Compare condition.
type CompareOp string

const (
	OpEq    CompareOp = "eq"
	OpNotEq CompareOp = "not_eq"
	OpGt    CompareOp = "gt"
	OpGte   CompareOp = "gte"
	OpLt    CompareOp = "lt"
	OpLte   CompareOp = "lte"
)

var compareOps = map[CompareOp]bool{OpEq: true, OpNotEq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true}

// Compare checks a value in the execution context against a constant.
type Compare struct {
	path  string
	op    CompareOp
	value any
}

// NewCompare validates the path and operator.
func NewCompare(path string, op CompareOp, value any) (*Compare, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if !compareOps[op] {
		return nil, fmt.Errorf("unknown compare op %q", op)
	}
	return &Compare{path: path, op: op, value: value}, nil
}

func newCompare(params map[string]any) (watch.Component, error) {
	path, err := stringParam(params, "path", true)
	if err != nil {
		return nil, err
	}
	op, err := stringParam(params, "op", true)
	if err != nil {
		return nil, err
	}
	return nonNil(NewCompare(path, CompareOp(op), params["value"]))
}

func (c *Compare) Type() string { return CompareConditionType }

// WriteBody writes {"<path>": {"<op>": <value>}}.
func (c *Compare) WriteBody(b *doc.Builder) error {
	b.StartObject().
		Field(c.path).StartObject().KeyValue(string(c.op), c.value).EndObject().
		EndObject()
	return b.Err()
}

// Script is a scripted condition or transform.
type Script struct {
	source string
	lang   string
	params map[string]any
}

// NewScript requires a non-empty source. lang and params are optional.
func NewScript(source, lang string, params map[string]any) (*Script, error) {
	if source == "" {
		return nil, errors.New("source is required")
	}
	return &Script{source: source, lang: lang, params: maps.Clone(params)}, nil
}

func newScript(params map[string]any) (watch.Component, error) {
	source, err := stringParam(params, "source", true)
	if err != nil {
		return nil, err
	}
	lang, err := stringParam(params, "lang", false)
	if err != nil {
		return nil, err
	}
	p, err := mapParam(params, "params")
	if err != nil {
		return nil, err
	}
	return nonNil(NewScript(source, lang, p))
}

func (s *Script) Type() string { return ScriptType }

func (s *Script) WriteBody(b *doc.Builder) error {
	b.StartObject().KeyValue("source", s.source)
	if s.lang != "" {
		b.KeyValue("lang", s.lang)
	}
	if len(s.params) > 0 {
		b.KeyValue("params", s.params)
	}
	b.EndObject()
	return b.Err()
}
