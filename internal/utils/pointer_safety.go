// Package utils holds small generic helpers shared across packages.
package utils

// Value dereferences v, returning the zero value for a nil pointer.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v, handy for optional request fields.
func Ptr[T any](v T) *T {
	return &v
}
