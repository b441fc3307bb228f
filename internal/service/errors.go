package service

import (
	"errors"
	"fmt"
)

// Validation sentinels for rejected transitions. Handlers match on these
// with errors.Is to decide the response shape.
var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrMissingProof           = errors.New("proof of payment required")
	ErrIrreversibleTransition = errors.New("paid status cannot be reverted")
	ErrImmutableQuantity      = errors.New("quantity cannot change on a paid transaction")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
)

// FieldError is a structured validation failure keyed by the offending
// field, so the admin UI can redisplay it next to the right input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.err
}

func insufficientStock(requested, available int) *FieldError {
	return &FieldError{
		Field:   "quantity",
		Message: fmt.Sprintf("insufficient stock: requested %d, available %d", requested, available),
		err:     ErrInsufficientStock,
	}
}

func missingProof() *FieldError {
	return &FieldError{
		Field:   "proof",
		Message: "proof of payment is required to mark a transaction paid",
		err:     ErrMissingProof,
	}
}

func irreversibleTransition() *FieldError {
	return &FieldError{
		Field:   "is_paid",
		Message: "a paid transaction cannot be reverted to unpaid",
		err:     ErrIrreversibleTransition,
	}
}

func immutableQuantity() *FieldError {
	return &FieldError{
		Field:   "quantity",
		Message: "quantity cannot change once the transaction is paid",
		err:     ErrImmutableQuantity,
	}
}

func invalidQuantity(qty int) *FieldError {
	return &FieldError{
		Field:   "quantity",
		Message: fmt.Sprintf("quantity must be at least 1, got %d", qty),
		err:     ErrInvalidQuantity,
	}
}
