package util

import (
	"reflect"
	"strconv"
)

// FlattenSlice turns arbitrarily nested slices into one dimension,
// preserving element order:
//
//	FlattenSlice([]any{1, []any{2, 3}, []any{4, []any{5, []int{6}}}})
//	// => []any{1, 2, 3, 4, 5, 6}
func FlattenSlice(in []any) []any {
	out := make([]any, 0, len(in))
	for _, item := range in {
		out = appendFlat(out, item)
	}
	return out
}

func appendFlat(out []any, item any) []any {
	if item == nil {
		return append(out, nil)
	}
	v := reflect.ValueOf(item)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return append(out, item)
	}
	// []byte is a value, not a collection.
	if v.Type().Elem().Kind() == reflect.Uint8 {
		return append(out, item)
	}
	for i := 0; i < v.Len(); i++ {
		out = appendFlat(out, v.Index(i).Interface())
	}
	return out
}

// FlattenObject turns nested maps into a single level whose keys join the
// path with sep (default "."). Slices are indexed numerically.
//
//	FlattenObject(map[string]any{"a": map[string]any{"b": 1}, "c": []any{"x"}}, "")
//	// => map[string]any{"a.b": 1, "c.0": "x"}
//
// Empty maps and slices are kept as-is so no key disappears.
func FlattenObject(in map[string]any, sep string) map[string]any {
	if sep == "" {
		sep = "."
	}
	out := make(map[string]any)
	for k, v := range in {
		flattenInto(out, k, v, sep)
	}
	return out
}

func flattenInto(out map[string]any, prefix string, v any, sep string) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			out[prefix] = val
			return
		}
		for k, inner := range val {
			flattenInto(out, prefix+sep+k, inner, sep)
		}
	case []any:
		if len(val) == 0 {
			out[prefix] = val
			return
		}
		for i, inner := range val {
			flattenInto(out, prefix+sep+strconv.Itoa(i), inner, sep)
		}
	default:
		out[prefix] = v
	}
}
