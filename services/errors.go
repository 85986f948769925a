package services

import (
	"errors"
	"fmt"

	"github.com/busticket/busticket_backend/repositories"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)

// ServiceError carries a kind, a client-safe message and the underlying cause.
type ServiceError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == e.Kind }

func notFound(msg string) error {
	return &ServiceError{Kind: ErrNotFound, Msg: msg}
}

func invalidArgument(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) error {
	return &ServiceError{Kind: ErrInternal, Msg: msg, Err: err}
}

// storeError maps a repository error onto the service taxonomy.
func storeError(err error, msg, missing string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(missing)
	}
	return internal(msg, err)
}
