package services

import (
	"errors"
	"fmt"
)

// Domain error kinds. Services wrap these with context; callers match them
// with errors.Is. Any error that wraps none of them is an infrastructure
// failure.
var (
	ErrValidation              = errors.New("validation failed")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrDishNotFound            = errors.New("dish not found")
	ErrDishInUse               = errors.New("dish is referenced by order items")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderItemNotFound       = errors.New("order item not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrOrderImmutable          = errors.New("paid orders cannot be modified")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsDomainError reports whether err carries one of the domain error kinds
func IsDomainError(err error) bool {
	for _, kind := range []error{
		ErrValidation,
		ErrEmptyOrder,
		ErrDishNotFound,
		ErrDishInUse,
		ErrOrderNotFound,
		ErrOrderItemNotFound,
		ErrInvalidStatusTransition,
		ErrOrderImmutable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
