/*
store.go - Persistence interfaces for the fee domain

PURPOSE:
  Defines the interface between the fee domain and the database. Methods
  either persist single records or bulk-load the lookup structures the
  liability engine iterates over. Implementations: store/sqlite
  (production) and fees/store (in-memory, for tests).

BULK-LOADING CONTRACT:
  The engine must never issue per-student-per-head queries. The loaders
  here return whole-session structures in a single call each:
  - ListFeeHeads:      heads with their full per-class amount schedule
  - LoadEnrollmentSet: every opt-out record for the session
  - LoadPaymentIndex:  payment sums keyed by (student, head, installment)

SEE ALSO:
  - loader.go: Composes these calls into a LiabilityData snapshot
  - store/sqlite/sqlite.go: Production implementation
  - fees/store/memory.go:   In-memory implementation
*/
package fees

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG STORE
// =============================================================================

// CatalogStore persists fee heads and session settings.
type CatalogStore interface {
	// SaveFeeHead inserts or updates a head and replaces its per-class
	// amount schedule.
	SaveFeeHead(ctx context.Context, head FeeHead) error

	// GetFeeHead returns a head with its amounts, or nil when absent.
	GetFeeHead(ctx context.Context, id string) (*FeeHead, error)

	// ListFeeHeads returns heads with their amount schedules, scoped to
	// a session. An empty session returns all heads.
	ListFeeHeads(ctx context.Context, session string) ([]FeeHead, error)

	// FindTransportHead returns the transport-flagged head with the
	// given name (case-insensitive), or nil when none matches.
	FindTransportHead(ctx context.Context, name string) (*FeeHead, error)

	// DeleteFeeHead removes a head and its amounts.
	DeleteFeeHead(ctx context.Context, id string) error

	// SaveGlobalSetting upserts the per-session setting row.
	SaveGlobalSetting(ctx context.Context, setting GlobalFeeSetting) error

	// GetGlobalSetting returns the setting for a session, or nil when
	// absent. Callers fall back to an installment count of 1.
	GetGlobalSetting(ctx context.Context, session string) (*GlobalFeeSetting, error)

	// LatestSession returns the most recently configured session label,
	// or "" when none exists. Used to resolve requests that omit the
	// session parameter; resolution happens once per request.
	LatestSession(ctx context.Context) (string, error)
}

// =============================================================================
// ENROLLMENT STORE
// =============================================================================

// EnrollmentStore persists per-installment opt-out records.
type EnrollmentStore interface {
	// SetEnrollment upserts by (student, head, session, installment).
	SetEnrollment(ctx context.Context, e StudentFeeEnrollment) error

	// ListEnrollments returns records for a student in a session. An
	// empty studentID returns the whole session.
	ListEnrollments(ctx context.Context, studentID, session string) ([]StudentFeeEnrollment, error)

	// LoadEnrollmentSet bulk-loads the session's opt-out index.
	LoadEnrollmentSet(ctx context.Context, session string) (EnrollmentSet, error)
}

// =============================================================================
// TRANSACTION STORE
// =============================================================================

// TransactionFact is a payment joined with the facts the stats and
// report paths filter on.
type TransactionFact struct {
	TransactionID     string
	StudentID         string
	Class             string
	FeeHeadID         string
	InstallmentNumber int
	Amount            decimal.Decimal
	PaymentDate       time.Time
}

// TransactionStore reads payment events.
type TransactionStore interface {
	// ListTransactions returns a student's payments, oldest first. An
	// empty studentID returns all payments.
	ListTransactions(ctx context.Context, studentID string) ([]FeeTransaction, error)

	// GetTransaction returns one payment, or nil when absent.
	GetTransaction(ctx context.Context, id string) (*FeeTransaction, error)

	// LoadPaymentIndex bulk-loads payment sums for every head in the
	// session, keyed by (student, head, installment).
	LoadPaymentIndex(ctx context.Context, session string) (PaymentIndex, error)

	// ListSessionTransactions returns payment facts for heads in the
	// session, for stats filtering.
	ListSessionTransactions(ctx context.Context, session string) ([]TransactionFact, error)
}

// =============================================================================
// RECEIPT STORE
// =============================================================================

// ReceiptStore persists receipts and their line items. Receipt-number
// allocation is the one cross-request invariant requiring atomicity:
// CreateReceipt reads max+1 and inserts the receipt plus all lines in a
// single all-or-nothing store transaction.
type ReceiptStore interface {
	// CreateReceipt allocates the next receipt number and persists the
	// receipt with its line items atomically. The returned receipt
	// carries the allocated number.
	CreateReceipt(ctx context.Context, r Receipt, lines []FeeTransaction) (*Receipt, error)

	// GetReceipt returns a receipt and its line items, or nil when absent.
	GetReceipt(ctx context.Context, id string) (*Receipt, []FeeTransaction, error)

	// ListReceipts returns receipts, newest first. An empty studentID
	// returns all receipts.
	ListReceipts(ctx context.Context, studentID string) ([]Receipt, error)

	// UpdateReceiptLines updates line-item amounts by transaction ID and
	// recomputes the receipt total from persisted transactions, in one
	// store transaction.
	UpdateReceiptLines(ctx context.Context, receiptID string, amounts map[string]decimal.Decimal) (*Receipt, error)
}

// =============================================================================
// COMPOSED INTERFACE
// =============================================================================

// Store is the full fee-domain persistence surface.
type Store interface {
	CatalogStore
	EnrollmentStore
	TransactionStore
	ReceiptStore
}
