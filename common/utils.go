package common

// Coalesce returns the first value in the list that is not the zero value of
// its type, or the zero value when every input is zero. Used to layer option
// overrides over defaults.
//
// Parameters:
//   - values: a variadic list of values to check
//
// Returns:
//   - T: the first non-zero value, or the zero value
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
