package util

import (
	"reflect"
	"strconv"
	"strings"
)

// SafeAccess reads a dot-separated path from obj and returns nil when any
// segment cannot be resolved.
//
// Segments may name map keys, exported struct fields, or slice indexes.
// A final segment ending in "()" calls the named method with args and
// returns its first result:
//
//	SafeAccess(order, "customer.address.city")
//	SafeAccess(order, "items.0.sku")
//	SafeAccess(order, "customer.DisplayName()", "short")
func SafeAccess(obj any, path string, args ...any) (result any) {
	// Promoted fields through nil embedded pointers panic inside reflect.
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	if obj == nil {
		return nil
	}
	if path == "" {
		return obj
	}

	current := reflect.ValueOf(obj)
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if strings.HasSuffix(seg, "()") {
			if i != len(segments)-1 {
				return nil
			}
			return invoke(current, strings.TrimSuffix(seg, "()"), args)
		}

		next, ok := step(current, seg)
		if !ok {
			return nil
		}
		current = next
	}

	if !current.IsValid() || !current.CanInterface() {
		return nil
	}
	return current.Interface()
}

// step resolves one path segment against v.
func step(v reflect.Value, seg string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		key := reflect.ValueOf(seg).Convert(v.Type().Key())
		out := v.MapIndex(key)
		return out, out.IsValid()
	case reflect.Struct:
		field, ok := v.Type().FieldByName(seg)
		if !ok || !field.IsExported() {
			return reflect.Value{}, false
		}
		return v.FieldByIndex(field.Index), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(idx), true
	}
	return reflect.Value{}, false
}

// invoke calls the named method on v with args, returning its first result
// or nil when the call cannot be made.
func invoke(v reflect.Value, name string, args []any) (result any) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	// Methods may live on the pointer or the value receiver.
	method := v.MethodByName(name)
	if !method.IsValid() {
		method = indirect(v).MethodByName(name)
	}
	if !method.IsValid() {
		return nil
	}

	mt := method.Type()
	if !mt.IsVariadic() && mt.NumIn() != len(args) {
		return nil
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if mt.IsVariadic() && i >= mt.NumIn()-1 {
			want = mt.In(mt.NumIn() - 1).Elem()
		} else {
			want = mt.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(want) {
			if !av.Type().ConvertibleTo(want) {
				return nil
			}
			av = av.Convert(want)
		}
		in[i] = av
	}

	out := method.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

// indirect follows pointers and interfaces down to a concrete value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
