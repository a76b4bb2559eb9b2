package util

import "reflect"

// IsNil reports whether v is nil or a typed nil (map, pointer, slice,
// interface, func, chan). A JSON `null` body decodes to one of these.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
