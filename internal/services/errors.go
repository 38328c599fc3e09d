package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity means the supplied quantity was not a valid
	// positive (add) or non-negative (set) integer. The operation had no
	// side effect.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrProductNotFound means the catalog cannot resolve the referenced
	// product.
	ErrProductNotFound = errors.New("product not found")

	// ErrStorage means the underlying persistence failed, including a
	// line-update conflict that exceeded the retry budget. The caller
	// decides whether to retry the whole operation.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")
)

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
