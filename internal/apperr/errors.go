package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalid              = errors.New("invalid input")
	ErrLastBoard            = errors.New("cannot delete the last board")
	ErrConfirmationMismatch = errors.New("confirmation text does not match")
	ErrBadDocument          = errors.New("malformed document")
)
