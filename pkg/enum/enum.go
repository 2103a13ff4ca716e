package enum

import (
	"fmt"
	"reflect"
)

// registry maps an enum's concrete type to its known string values.
var registry = map[reflect.Type]any{}

type values[T comparable] map[string]T

// New registers value into the set of valid values of its type and returns it
// unchanged. Entity packages call it at package init to declare their string
// enums.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)
	set, ok := registry[t].(values[T])
	if !ok {
		set = make(values[T])
		registry[t] = set
	}

	set[reflect.ValueOf(value).String()] = value
	return value
}

// ToEnum converts a raw string to a registered enum value, failing on unknown
// strings. The domain uses it to validate request parameters.
func ToEnum[T comparable](s string) (T, error) {
	var zero T
	set, ok := registry[reflect.TypeOf(zero)].(values[T])
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	v, ok := set[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return v, nil
}
