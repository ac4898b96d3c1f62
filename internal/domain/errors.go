package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected operation requires a connected wallet.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrInvalidRecipient recipient is not a valid address.
	ErrInvalidRecipient = errors.New("invalid recipient address")
	// ErrInvalidAmount amount is not a positive finite number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSigningInProgress another signature request is pending.
	ErrSigningInProgress = errors.New("signing already in progress")
)

// ValidationError input rejected before any external call was made.
type ValidationError struct {
	// Reason one of ErrNotConnected, ErrInvalidRecipient, ErrInvalidAmount, ErrSigningInProgress.
	Reason error
	Detail string
}

// NewValidationError builds a ValidationError with an optional detail.
func NewValidationError(reason error, detail string) *ValidationError {
	return &ValidationError{Reason: reason, Detail: detail}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason.Error(), e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// ConnectionError failure at the provider boundary during connect or teardown.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransactionError signing or submission failure.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConnection reports whether err is a ConnectionError.
func IsConnection(err error) bool {
	var c *ConnectionError
	return errors.As(err, &c)
}

// IsTransaction reports whether err is a TransactionError.
func IsTransaction(err error) bool {
	var t *TransactionError
	return errors.As(err, &t)
}
