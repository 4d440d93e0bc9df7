package service

import (
	"errors"
	"fmt"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrDuplicateKey      = errors.New("item with this name and spec already exists")
	ErrPermissionDenied  = errors.New("permission denied")
)

// validationError reports the first failed rule as an ErrValidation.
func validationError(errs []*validator.ErrorResponse) error {
	first := errs[0]
	return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}
	return nil
}

// storeError maps repository sentinels onto service errors; anything else
// passes through untouched.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	default:
		return err
	}
}
