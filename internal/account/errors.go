package account

import (
	"errors"

	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
)

// ErrorKind classifies an operation result. Handlers map each kind to one status code.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindBackend      ErrorKind = "backend"
)

func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, user.ErrNotFound):
		return KindNotFound
	case errors.Is(err, user.ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	default:
		return KindBackend
	}
}
