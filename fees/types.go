/*
Package fees provides the fee catalog and the liability computation engine.

PURPOSE:
  This package contains the domain types and algorithms for school fee
  administration: named fee heads with per-class amount schedules,
  per-session installment settings, per-student opt-out enrollment,
  payment transactions grouped into receipts, and the engine that derives
  expected/paid/pending amounts per student.

KEY CONCEPTS IN THIS FILE (types.go):
  - FeeHead:              A named charge scoped to a session
  - FeeAmount schedule:   One amount per class per head
  - GlobalFeeSetting:     Per-session installment divisor
  - StudentFeeEnrollment: Per-installment opt-out record
  - FeeTransaction:       Immutable payment event
  - Receipt:              Groups transactions under a sequential number

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all money; rounding to two
     places happens only at API serialization
  2. Opt-out enrollment: absence of a record means enrolled
  3. Bulk loading: the engine never queries per student per head; all
     facts are pre-loaded into lookup maps (see engine.go, loader.go)

SEE ALSO:
  - engine.go: Liability computation
  - store.go:  Persistence interfaces
  - loader.go: Bulk snapshot loading
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FEE HEAD - Named charge with a per-class amount schedule
// =============================================================================

type Frequency string

const (
	FrequencyOnce         Frequency = "ONCE"
	FrequencyInstallments Frequency = "INSTALLMENTS"
)

// TransportDisplayName is the fixed label under which every
// transport-flagged head appears in reports, regardless of its
// configured name.
const TransportDisplayName = "Transportation Fees"

// FeeHead is a named charge (tuition, transport, exam fee, ...) scoped
// to an academic session. Amounts holds the per-class schedule: a class
// without an entry is simply not charged this head.
type FeeHead struct {
	ID          string
	Name        string
	Description string
	Session     string
	Frequency   Frequency

	// Due-date policy and late fees are informational; the engine does
	// not enforce them.
	DueDay          int
	DueMonths       string
	LateFeeAmount   decimal.Decimal
	GracePeriodDays int

	IsTransportFee bool

	// Amounts is keyed by class label. Unique per (head, class).
	Amounts map[string]decimal.Decimal

	CreatedAt time.Time
}

// DisplayName is the label used in report breakdowns. Transport heads
// always display under a fixed label distinct from their configured name.
func (h FeeHead) DisplayName() string {
	if h.IsTransportFee {
		return TransportDisplayName
	}
	return h.Name
}

// InstallmentCount returns the number of slots this head is split into,
// given the session's global count. ONCE heads are always a single slot.
// A non-positive session count falls back to 1; the engine never divides
// by zero.
func (h FeeHead) InstallmentCount(sessionCount int) int {
	if h.Frequency == FrequencyOnce {
		return 1
	}
	if sessionCount < 1 {
		return 1
	}
	return sessionCount
}

// AmountFor returns the configured amount for a class. A missing entry
// means the head does not apply to that class.
func (h FeeHead) AmountFor(class string) (decimal.Decimal, bool) {
	amt, ok := h.Amounts[class]
	return amt, ok
}

// =============================================================================
// GLOBAL FEE SETTING - Per-session installment policy
// =============================================================================

type LateFeeFrequency string

const (
	LateFeeOnce   LateFeeFrequency = "ONCE"
	LateFeePerDay LateFeeFrequency = "PER_DAY"
)

// GlobalFeeSetting holds the per-session installment count used as the
// default divisor for INSTALLMENTS heads. One row per session.
type GlobalFeeSetting struct {
	Session          string
	InstallmentCount int
	DueMonths        string
	DueDay           int

	// Informational late-fee policy, not enforced by the engine.
	LateFeeAmount    decimal.Decimal
	LateFeeStartDay  int
	LateFeeFrequency LateFeeFrequency
}

// ResolveInstallmentCount returns the effective installment count for a
// session setting, substituting 1 for a missing or non-positive value.
func ResolveInstallmentCount(setting *GlobalFeeSetting) int {
	if setting == nil || setting.InstallmentCount < 1 {
		return 1
	}
	return setting.InstallmentCount
}

// =============================================================================
// ENROLLMENT - Per-installment opt-out records
// =============================================================================

// StudentFeeEnrollment is an opt-out record. Absence of a record means
// the student IS enrolled for that installment (opt-out model, not
// opt-in). Unique per (student, head, session, installment).
type StudentFeeEnrollment struct {
	ID                string
	StudentID         string
	FeeHeadID         string
	Session           string
	InstallmentNumber int
	IsEnrolled        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SlotKey identifies one (student, head, installment) liability slot.
type SlotKey struct {
	StudentID         string
	FeeHeadID         string
	InstallmentNumber int
}

// EnrollmentSet is the bulk-loaded opt-out index for one session. The
// lookup defaults to enrolled when no record exists.
type EnrollmentSet map[SlotKey]bool

// Enrolled reports whether the student owes the given installment of the
// given head. Absence of a record means enrolled.
func (s EnrollmentSet) Enrolled(studentID, headID string, installment int) bool {
	enrolled, ok := s[SlotKey{StudentID: studentID, FeeHeadID: headID, InstallmentNumber: installment}]
	if !ok {
		return true
	}
	return enrolled
}

// =============================================================================
// TRANSACTIONS AND RECEIPTS
// =============================================================================

type PaymentMode string

const (
	PaymentCash   PaymentMode = "CASH"
	PaymentOnline PaymentMode = "ONLINE"
)

// FeeTransaction is an immutable payment event applied against one
// installment of one fee head.
type FeeTransaction struct {
	ID                string
	StudentID         string
	FeeHeadID         string
	ReceiptID         string
	AmountPaid        decimal.Decimal
	InstallmentNumber int
	PaymentDate       time.Time
	Remarks           string
	CreatedAt         time.Time
}

// Receipt groups the transactions issued together. ReceiptNo is
// strictly increasing and unique; allocation happens inside the same
// store transaction as line-item creation (see store/sqlite).
type Receipt struct {
	ID          string
	ReceiptNo   int64
	StudentID   string
	TotalAmount decimal.Decimal
	PaymentMode PaymentMode
	Remarks     string
	PaymentDate time.Time
	CreatedAt   time.Time
}

// PaymentIndex is the bulk-loaded sum of payments per liability slot.
type PaymentIndex map[SlotKey]decimal.Decimal

// PaidFor returns the total paid against one slot.
func (p PaymentIndex) PaidFor(studentID, headID string, installment int) decimal.Decimal {
	return p[SlotKey{StudentID: studentID, FeeHeadID: headID, InstallmentNumber: installment}]
}

// Add accumulates a payment into the index.
func (p PaymentIndex) Add(studentID, headID string, installment int, amount decimal.Decimal) {
	k := SlotKey{StudentID: studentID, FeeHeadID: headID, InstallmentNumber: installment}
	p[k] = p[k].Add(amount)
}

// Round2 rounds a decimal to two places for presentation. Engine math
// stays exact until this point.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
