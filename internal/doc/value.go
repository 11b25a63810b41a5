package doc

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Normalize converts v into a tree value: nil, bool, string, int64, uint64,
// float64, json.Number, *Object or []any. Durations become milliseconds and
// times become RFC 3339 strings. Maps with string keys become objects with
// sorted keys; slices and arrays become []any. Objects are copied, so the
// result never aliases caller-owned containers. A container that contains
// itself fails with ErrSelfReference.
func Normalize(v any) (any, error) {
	var n normalizer
	return n.value(v)
}

// ErrSelfReference is returned for a map, slice or pointer that is reachable
// from inside itself.
var ErrSelfReference = errors.New("self-referencing value")

type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// normalizer tracks the containers on the current path. Shared containers
// that do not loop are fine; only re-entering one fails.
type normalizer struct {
	path map[visit]struct{}
}

func (n *normalizer) enter(rv reflect.Value) (func(), error) {
	var key visit
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		key = visit{typ: rv.Type(), ptr: rv.Pointer()}
	case reflect.Slice:
		if rv.Len() == 0 {
			return func() {}, nil
		}
		key = visit{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
	default:
		return func() {}, nil
	}
	if n.path == nil {
		n.path = make(map[visit]struct{})
	}
	if _, ok := n.path[key]; ok {
		return nil, ErrSelfReference
	}
	n.path[key] = struct{}{}
	return func() { delete(n.path, key) }, nil
}

func (n *normalizer) value(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, uint64, float64, json.Number:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uint64(val), nil
	case uint8:
		return uint64(val), nil
	case uint16:
		return uint64(val), nil
	case uint32:
		return uint64(val), nil
	case float32:
		return float64(val), nil
	case time.Duration:
		return val.Milliseconds(), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	case *Object:
		if val == nil {
			return nil, nil
		}
		leave, err := n.enter(reflect.ValueOf(val))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := NewObject()
		for _, k := range val.keys {
			nv, err := n.value(val.values[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Set(k, nv)
		}
		return out, nil
	case []any:
		leave, err := n.enter(reflect.ValueOf(val))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := make([]any, len(val))
		for i, elem := range val {
			nv, err := n.value(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	case map[string]any:
		leave, err := n.enter(reflect.ValueOf(val))
		if err != nil {
			return nil, err
		}
		defer leave()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewObject()
		for _, k := range keys {
			nv, err := n.value(val[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Set(k, nv)
		}
		return out, nil
	}
	return n.reflectValue(reflect.ValueOf(v))
}

func (n *normalizer) reflectValue(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		leave, err := n.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		return n.value(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		leave, err := n.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		out := make([]any, rv.Len())
		for i := range out {
			nv, err := n.value(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		leave, err := n.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		out := NewObject()
		for _, k := range keys {
			nv, err := n.value(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.String(), err)
			}
			out.Set(k.String(), nv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", rv.Type())
}
