package common

import "reflect"

// Map is a JSON object under construction. A nil value marks a parameter
// that was left unset and must not be serialized at all: the service treats
// an absent field differently from an explicit null.
type Map map[string]interface{}

// RemoveUndefined returns a copy of m without the unset entries. Explicitly
// set false/zero/empty-string values are kept.
func RemoveUndefined(m Map) Map {
	out := make(Map, len(m))
	for k, v := range m {
		if isUndefined(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isUndefined(v interface{}) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
