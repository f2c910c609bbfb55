package validator

import (
	"fmt"
	"reflect"
)

// Validate checks that every dependency handed to a component constructor
// is usable: non-nil for nilable kinds, non-zero for scalars. Stateless
// struct values pass even when zero.
func Validate(name string, deps ...any) error {
	for i, dep := range deps {
		if missing(reflect.ValueOf(dep)) {
			return fmt.Errorf("missing required dep %d for component: %s", i, name)
		}
	}

	return nil
}

func missing(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return v.IsZero()
	default:
		return false
	}
}
