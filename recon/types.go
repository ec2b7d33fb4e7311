/*
Package recon pairs imported bank-statement lines with online payments.

PURPOSE:
  Holds the bank-statement entry type, the reconciliation store
  interface, the auto-match algorithm (matcher.go), and the CSV
  importer (importer.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry:     An imported bank-statement line with reconciliation state
  - Candidate: An online payment not yet linked to any statement entry
  - Store:     Persistence operations for entries and candidate lookup

RECONCILIATION STATES:
  An entry is either unreconciled, reconciled with a matched
  transaction, or reconciled without linkage (manual reconciliation is
  permitted without naming a transaction).

SEE ALSO:
  - matcher.go:  Auto-match by amount and date proximity
  - importer.go: CSV ingestion with flexible headers
*/
package recon

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TYPES
// =============================================================================

// Entry is an imported bank-statement line.
type Entry struct {
	ID          string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	RefNumber   string

	IsReconciled bool
	// MatchedTransactionID is empty for manual reconciliation without
	// linkage.
	MatchedTransactionID string

	CreatedAt time.Time
}

// Candidate is an online-mode payment with no statement entry linked to
// it yet.
type Candidate struct {
	TransactionID string
	StudentName   string
	Amount        decimal.Decimal
	PaymentDate   time.Time
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEntryNotFound is returned when a referenced statement entry doesn't exist.
	ErrEntryNotFound = errors.New("bank statement entry not found")

	// ErrAlreadyReconciled is returned when reconciling an entry twice.
	ErrAlreadyReconciled = errors.New("entry is already reconciled")

	// ErrNotReconciled is returned when unreconciling an entry that isn't.
	ErrNotReconciled = errors.New("entry is not reconciled")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists statement entries and resolves match candidates.
type Store interface {
	// SaveEntry inserts or updates one statement entry.
	SaveEntry(ctx context.Context, e Entry) error

	// SaveEntries inserts a batch of imported entries.
	SaveEntries(ctx context.Context, entries []Entry) error

	// GetEntry returns an entry, or nil when absent.
	GetEntry(ctx context.Context, id string) (*Entry, error)

	// ListEntries returns entries, newest statement date first. With
	// onlyUnreconciled set, reconciled entries are excluded.
	ListEntries(ctx context.Context, onlyUnreconciled bool) ([]Entry, error)

	// ListCandidates returns online payments that no statement entry is
	// linked to.
	ListCandidates(ctx context.Context) ([]Candidate, error)
}
