package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAuthRequired = errors.New("github token required")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}
