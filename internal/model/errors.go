package model

import "github.com/rotisserie/eris"

// ErrInvalidInput marks caller mistakes: a malformed target, a missing
// artifact id, an out-of-range score. Test with errors.Is.
var ErrInvalidInput = eris.New("invalid input")

// InvalidInput wraps ErrInvalidInput with a description of the bad field.
func InvalidInput(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidInput, format, args...)
}
