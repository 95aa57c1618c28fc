package service

import "fmt"

// ValidationError means the request itself is unacceptable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError names the resource that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// AuthError is returned when the reset secret does not match.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "incorrect password"
}

// StoreError wraps any failure of the backing store or lock service.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
