package propdex

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/propdex/composite"
	"github.com/hupe1980/propdex/index"
)

var (
	// ErrUnknownProperty is returned when a property name is not registered.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidProperty is returned for an empty property name.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrTypeMismatch is returned when a value or registration disagrees with
	// the registered type of a property.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrTooFewProperties is returned when a composite names fewer than two properties.
	ErrTooFewProperties = errors.New("composite needs at least two properties")

	// ErrTagSetMismatch is returned when a view names a different property set
	// than its composite.
	ErrTagSetMismatch = errors.New("property set mismatch")

	// ErrUnknownComposite is returned when no composite is registered for a property set.
	ErrUnknownComposite = errors.New("unknown composite")

	// ErrNoSuchEntry is returned by erased inserts that would need to create an entry.
	ErrNoSuchEntry = index.ErrNoSuchEntry

	// ErrDuplicateKey is returned when a complete entity set is stored twice for one key.
	ErrDuplicateKey = index.ErrDuplicateKey

	// ErrDuplicateTag is returned when a composite names the same property twice.
	ErrDuplicateTag = composite.ErrDuplicateTag
)

// TypeMismatchError reports the expected and actual types of a property value.
//
// It unwraps to ErrTypeMismatch.
type TypeMismatchError struct {
	Property string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for property %q: expected %v, got %v", e.Property, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// checkType compares the dynamic type of v with the registered type by identity.
func checkType(name string, expected reflect.Type, v any) error {
	actual := reflect.TypeOf(v)
	if actual == expected {
		return nil
	}
	if expected.Kind() == reflect.Interface && (actual == nil || actual.Implements(expected)) {
		return nil
	}
	return &TypeMismatchError{Property: name, Expected: expected, Actual: actual}
}
