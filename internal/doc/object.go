package doc

import (
	"bytes"
	"encoding/json"
)

// Object is a string-keyed object that remembers insertion order.
// Setting an existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject allocates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores v under key.
func (o *Object) Set(key string, v any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v any) bool) {
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Object returns the nested object stored under key, or nil.
func (o *Object) Object(key string) *Object {
	sub, _ := o.values[key].(*Object)
	return sub
}

// Plain converts the tree into map[string]any / []any values, dropping order.
func (o *Object) Plain() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = plain(o.values[k])
	}
	return out
}

func plain(v any) any {
	switch val := v.(type) {
	case *Object:
		return val.Plain()
	case []any:
		arr := make([]any, len(val))
		for i, elem := range val {
			arr[i] = plain(elem)
		}
		return arr
	default:
		return v
	}
}

// MarshalJSON writes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ json.Marshaler = (*Object)(nil)
