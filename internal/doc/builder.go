package doc

import (
	"errors"
	"fmt"
	"time"
)

// Builder assembles a document tree from a stream of start/end/field/value
// calls. The first error is sticky: every later call is a no-op and Result
// reports it.
type Builder struct {
	stack []*frame
	root  any
	done  bool
	err   error
}

type frame struct {
	obj     *Object
	arr     []any
	isArray bool
	slotKey string // key this container occupies in its parent object
	key     string // pending field name (objects only)
	hasKey  bool
}

// NewBuilder returns an empty Builder positioned at the root value slot.
func NewBuilder() *Builder {
	return &Builder{}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

// Depth returns the number of open containers.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// FieldPending reports whether the innermost object has a field name
// waiting for its value.
func (b *Builder) FieldPending() bool {
	f := b.top()
	return f != nil && f.hasKey
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// claim reserves the current value slot and returns the key it lives under
// when the parent is an object.
func (b *Builder) claim() (string, error) {
	f := b.top()
	switch {
	case f == nil:
		if b.done {
			return "", errors.New("document root already written")
		}
		return "", nil
	case f.isArray:
		return "", nil
	case !f.hasKey:
		return "", errors.New("value written inside object without a field name")
	default:
		key := f.key
		f.key, f.hasKey = "", false
		return key, nil
	}
}

func (b *Builder) place(key string, v any) {
	f := b.top()
	switch {
	case f == nil:
		b.root = v
		b.done = true
	case f.isArray:
		f.arr = append(f.arr, v)
	default:
		f.obj.Set(key, v)
	}
}

// StartObject opens an object in the current value slot.
func (b *Builder) StartObject() *Builder {
	if b.err != nil {
		return b
	}
	key, err := b.claim()
	if err != nil {
		return b.fail(err)
	}
	b.stack = append(b.stack, &frame{obj: NewObject(), slotKey: key})
	return b
}

// EndObject closes the innermost object.
func (b *Builder) EndObject() *Builder {
	if b.err != nil {
		return b
	}
	f := b.top()
	if f == nil || f.isArray {
		return b.fail(errors.New("EndObject without matching StartObject"))
	}
	if f.hasKey {
		return b.fail(fmt.Errorf("field %q has no value", f.key))
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.place(f.slotKey, f.obj)
	return b
}

// StartArray opens an array in the current value slot.
func (b *Builder) StartArray() *Builder {
	if b.err != nil {
		return b
	}
	key, err := b.claim()
	if err != nil {
		return b.fail(err)
	}
	b.stack = append(b.stack, &frame{arr: []any{}, isArray: true, slotKey: key})
	return b
}

// EndArray closes the innermost array.
func (b *Builder) EndArray() *Builder {
	if b.err != nil {
		return b
	}
	f := b.top()
	if f == nil || !f.isArray {
		return b.fail(errors.New("EndArray without matching StartArray"))
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.place(f.slotKey, f.arr)
	return b
}

// Field names the next value written into the innermost object.
func (b *Builder) Field(key string) *Builder {
	if b.err != nil {
		return b
	}
	f := b.top()
	switch {
	case f == nil || f.isArray:
		return b.fail(fmt.Errorf("field %q written outside an object", key))
	case f.hasKey:
		return b.fail(fmt.Errorf("field %q written while field %q has no value", key, f.key))
	case f.obj.Has(key):
		return b.fail(fmt.Errorf("duplicate field %q", key))
	}
	f.key, f.hasKey = key, true
	return b
}

// Value writes v into the current value slot. See Normalize for the
// accepted types.
func (b *Builder) Value(v any) *Builder {
	if b.err != nil {
		return b
	}
	nv, err := Normalize(v)
	if err != nil {
		return b.fail(err)
	}
	key, err := b.claim()
	if err != nil {
		return b.fail(err)
	}
	b.place(key, nv)
	return b
}

// KeyValue is Field followed by Value.
func (b *Builder) KeyValue(key string, v any) *Builder {
	return b.Field(key).Value(v)
}

// TimeField writes d as integer milliseconds under machineKey and as a
// formatted string under humanKey.
func (b *Builder) TimeField(machineKey, humanKey string, d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d < 0 {
		return b.fail(fmt.Errorf("field %q: negative duration %s", machineKey, d))
	}
	return b.KeyValue(machineKey, d.Milliseconds()).KeyValue(humanKey, FormatDuration(d))
}

// Result returns the finished tree.
func (b *Builder) Result() (any, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) > 0 {
		return nil, fmt.Errorf("document has %d unclosed container(s)", len(b.stack))
	}
	if !b.done {
		return nil, errors.New("document is empty")
	}
	return b.root, nil
}

// Object returns the finished tree, which must be an object.
func (b *Builder) Object() (*Object, error) {
	v, err := b.Result()
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("document root is %T, not an object", v)
	}
	return obj, nil
}
