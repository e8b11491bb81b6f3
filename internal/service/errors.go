package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a submission rejected before any store write.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks a submission the store refused.
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError names the first required field that was missing or blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
