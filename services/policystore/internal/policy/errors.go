package policy

import "errors"

// ErrDuplicatePolicy rejects an add for a policyId that is already indexed.
// No ledger or index write happens for the rejected request.
var ErrDuplicatePolicy = errors.New(MsgPolicyAlreadyExists)

// ValidationError marks a request rejected before any I/O: a missing body,
// command, or required field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
