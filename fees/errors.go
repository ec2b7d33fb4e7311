/*
errors.go - Centralized error types for the fees package

PURPOSE:
  All fee-domain errors in one place. Handlers map sentinel errors to
  HTTP statuses; structured errors carry the computed values callers
  need to surface (e.g. the pending balance blocking a transfer).

SEE ALSO:
  - engine.go: TransferGate returns TransferBlockedError
  - api/handlers.go: Status-code mapping
*/
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrFeeHeadNotFound is returned when a referenced fee head doesn't exist.
	ErrFeeHeadNotFound = errors.New("fee head not found")

	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrReceiptNotFound is returned when a referenced receipt doesn't exist.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateFeeHead is returned when a head with the same name
	// already exists in the session.
	ErrDuplicateFeeHead = errors.New("fee head already exists for session")

	// ErrEmptyReceipt is returned when receipt creation carries no line items.
	ErrEmptyReceipt = errors.New("receipt requires at least one line item")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransferBlockedError reports the pending balance preventing a student
// from being marked TC.
type TransferBlockedError struct {
	StudentID string
	Pending   decimal.Decimal
}

func (e *TransferBlockedError) Error() string {
	return fmt.Sprintf("cannot mark as TC: student has pending dues: %s", Round2(e.Pending))
}
