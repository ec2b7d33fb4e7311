/*
engine.go - Fee liability computation

PURPOSE:
  Derives, per student and per installment, how much is owed, how much
  has been paid, and what remains pending, given the per-class fee
  catalog, the session's installment count, per-student opt-outs, and
  transport eligibility.

ALGORITHM:
  1. Resolve installment count N for the session (missing/zero -> 1).
  2. For each student, keep heads that price the student's class.
  3. Transport gate: a transport-flagged head applies only when the
     student has transport AND the head is their assigned one.
  4. Per-head slot count: 1 for ONCE heads, else N. Slot due = head
     amount / count, exact decimal division.
  5. An opt-out record (IsEnrolled=false) removes the slot entirely:
     expected, paid, and pending all skip it.
  6. Aggregate totals and an installment -> display-name breakdown.
  7. Include a student when show-all is set or pending > 0.01.
  8. Sort by pending, descending.

PERFORMANCE DISCIPLINE:
  The engine operates purely over the pre-loaded LiabilityData snapshot.
  It performs no store lookups: fee amounts, payments, and opt-outs are
  bulk-loaded once (loader.go) into maps keyed by class and SlotKey.
  This replaces the per-student-per-head query storm of a naive
  implementation.

SEE ALSO:
  - loader.go: Builds LiabilityData from the store
  - types.go:  FeeHead, EnrollmentSet, PaymentIndex
*/
package fees

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vidya/school-erp/students"
)

// =============================================================================
// INPUT SNAPSHOT
// =============================================================================

// LiabilityData is the immutable in-memory snapshot the engine computes
// over. Build it with LoadLiabilityData; tests construct it directly.
type LiabilityData struct {
	Session          string
	InstallmentCount int
	Heads            []FeeHead
	Enrollment       EnrollmentSet
	Payments         PaymentIndex
}

// pendingTolerance guards against decimal rounding noise surfacing as
// false-positive dues.
var pendingTolerance = decimal.RequireFromString("0.01")

// =============================================================================
// RESULT TYPES
// =============================================================================

// SlotAmounts is the due/paid/pending triple for one breakdown cell.
type SlotAmounts struct {
	Due     decimal.Decimal
	Paid    decimal.Decimal
	Pending decimal.Decimal
}

// Breakdown maps installment number -> fee-head display name -> amounts.
type Breakdown map[int]map[string]SlotAmounts

// StudentDues is the computed liability for one student.
type StudentDues struct {
	ID            string
	StudentID     string
	Name          string
	Class         string
	TotalDue      decimal.Decimal
	TotalPaid     decimal.Decimal
	PendingAmount decimal.Decimal
	Breakdown     Breakdown
}

// =============================================================================
// ENGINE
// =============================================================================

// ComputeDues derives liabilities for a set of students. Students with a
// pending balance above the tolerance are always included; the rest only
// when showAll is set. Results are sorted by pending balance descending.
func ComputeDues(sts []students.Student, data LiabilityData, showAll bool) []StudentDues {
	result := make([]StudentDues, 0, len(sts))
	for _, st := range sts {
		dues := ComputeStudentDues(st, data)
		if showAll || dues.PendingAmount.GreaterThan(pendingTolerance) {
			result = append(result, dues)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PendingAmount.GreaterThan(result[j].PendingAmount)
	})
	return result
}

// ComputeStudentDues derives the liability for a single student.
func ComputeStudentDues(st students.Student, data LiabilityData) StudentDues {
	dues := StudentDues{
		ID:            st.ID,
		StudentID:     st.StudentID,
		Name:          st.Name,
		Class:         st.Class,
		TotalDue:      decimal.Zero,
		TotalPaid:     decimal.Zero,
		PendingAmount: decimal.Zero,
		Breakdown:     make(Breakdown),
	}

	for _, head := range data.Heads {
		amount, ok := headAmount(head, st)
		if !ok {
			continue
		}

		count := head.InstallmentCount(data.InstallmentCount)
		slots := splitInstallments(amount, count)

		for i := 1; i <= count; i++ {
			if !data.Enrollment.Enrolled(st.ID, head.ID, i) {
				// Opted out: the slot vanishes from expected, paid,
				// and pending alike.
				continue
			}

			due := slots[i-1]
			paid := data.Payments.PaidFor(st.ID, head.ID, i)

			dues.TotalDue = dues.TotalDue.Add(due)
			dues.TotalPaid = dues.TotalPaid.Add(paid)

			byHead, ok := dues.Breakdown[i]
			if !ok {
				byHead = make(map[string]SlotAmounts)
				dues.Breakdown[i] = byHead
			}
			byHead[head.DisplayName()] = SlotAmounts{
				Due:     due,
				Paid:    paid,
				Pending: due.Sub(paid),
			}
		}
	}

	dues.PendingAmount = dues.TotalDue.Sub(dues.TotalPaid)
	return dues
}

// headAmount returns the charge a head places on a student, applying the
// class schedule and the transport gate. A head without an amount for
// the student's class is simply not applicable.
func headAmount(head FeeHead, st students.Student) (decimal.Decimal, bool) {
	amount, ok := head.AmountFor(st.Class)
	if !ok {
		return decimal.Decimal{}, false
	}
	if head.IsTransportFee {
		if !st.HasTransport || st.TransportFeeHeadID != head.ID {
			return decimal.Decimal{}, false
		}
	}
	return amount, true
}

// splitInstallments divides a head amount into count slots. The last
// slot absorbs any division remainder so the slots always sum exactly to
// the total; for terminating divisions all slots are equal.
func splitInstallments(total decimal.Decimal, count int) []decimal.Decimal {
	if count <= 1 {
		return []decimal.Decimal{total}
	}

	per := total.Div(decimal.NewFromInt(int64(count)))
	slots := make([]decimal.Decimal, count)
	running := decimal.Zero
	for i := 0; i < count-1; i++ {
		slots[i] = per
		running = running.Add(per)
	}
	slots[count-1] = total.Sub(running)
	return slots
}

// =============================================================================
// TRANSFER-ELIGIBILITY GATE
// =============================================================================

// TransferGate decides whether a student may be marked TC. It computes
// the student's current pending balance and returns TransferBlockedError
// when anything remains owed. This is a write-time invariant: callers
// run it inside the status-update path, never in the background.
func TransferGate(st students.Student, data LiabilityData) error {
	dues := ComputeStudentDues(st, data)
	if dues.PendingAmount.GreaterThan(pendingTolerance) {
		return &TransferBlockedError{StudentID: st.ID, Pending: dues.PendingAmount}
	}
	return nil
}
