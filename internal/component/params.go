package component

import (
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

// nonNil keeps a failed constructor from yielding a typed-nil component.
func nonNil[T watch.Component](c T, err error) (watch.Component, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

func stringParam(params map[string]any, key string, required bool) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	if required && s == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return s, nil
}

// stringsParam accepts a single string or a list of strings.
func stringsParam(params map[string]any, key string) ([]string, error) {
	switch v := params[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string, got %T", key, i, elem)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a string or a list of strings, got %T", key, v)
	}
}

func mapParam(params map[string]any, key string) (map[string]any, error) {
	switch v := params[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a mapping, got %T", key, v)
	}
}

func stringMapParam(params map[string]any, key string) (map[string]string, error) {
	m, err := mapParam(params, key)
	if err != nil || m == nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a string, got %T", key, k, v)
		}
		out[k] = s
	}
	return out, nil
}

func durationParam(params map[string]any, key string) (time.Duration, bool, error) {
	s, err := stringParam(params, key, false)
	if err != nil || s == "" {
		return 0, false, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

func intsParam(params map[string]any, key string) ([]int, error) {
	switch v := params[key].(type) {
	case nil:
		return nil, nil
	case []int:
		return v, nil
	case []any:
		out := make([]int, 0, len(v))
		for i, elem := range v {
			n, ok := toInt(elem)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be an integer, got %T", key, i, elem)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		if n, ok := toInt(v); ok {
			return []int{n}, nil
		}
		return nil, fmt.Errorf("%s must be an integer or a list of integers, got %T", key, v)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
