package services

import "errors"

// ErrInvalidCredentials is the only error login ever returns for a bad
// email or password, so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("Invalid email or password")

// ValidationError marks input problems the client can fix; handlers map
// it to 400 instead of 500.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
