/*
stats.go - Session-level aggregate summary

PURPOSE:
  Computes the dashboard numbers: student counts by status, total
  collected, and total pending for a session, with optional class,
  date-range, and installment filters.

CLAMPING POLICY:
  TotalPending is NOT clamped to zero. An overpaid session reports a
  negative pending total as-is; only per-student inclusion in the
  pending-fees report applies the 0.01 tolerance. (The source system was
  inconsistent here; this repo picks the no-clamp policy and documents
  it in DESIGN.md.)
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidya/school-erp/students"
)

// StatsFilter narrows the aggregate. Zero values mean "no filter".
type StatsFilter struct {
	Class       string
	From        *time.Time
	To          *time.Time
	Installment int
}

// Stats is the aggregate summary for a session.
type Stats struct {
	TotalStudents  int
	ActiveStudents int
	TCStudents     int
	TotalExpected  decimal.Decimal
	TotalCollected decimal.Decimal
	TotalPending   decimal.Decimal
}

// ComputeStats aggregates counts and collection totals over the
// pre-loaded snapshot and transaction facts. The expected total always
// covers the full session (a date filter narrows collections only, not
// liabilities); an installment filter narrows both sides to that slot.
func ComputeStats(sts []students.Student, data LiabilityData, facts []TransactionFact, f StatsFilter) Stats {
	var stats Stats
	stats.TotalExpected = decimal.Zero
	stats.TotalCollected = decimal.Zero

	inClass := make(map[string]bool, len(sts))
	for _, st := range sts {
		if f.Class != "" && st.Class != f.Class {
			continue
		}
		inClass[st.ID] = true
		stats.TotalStudents++
		switch st.Status {
		case students.StatusActive:
			stats.ActiveStudents++
		case students.StatusTC:
			stats.TCStudents++
		}
	}

	for _, st := range sts {
		if !inClass[st.ID] {
			continue
		}
		dues := ComputeStudentDues(st, data)
		if f.Installment > 0 {
			for _, slot := range dues.Breakdown[f.Installment] {
				stats.TotalExpected = stats.TotalExpected.Add(slot.Due)
			}
			continue
		}
		stats.TotalExpected = stats.TotalExpected.Add(dues.TotalDue)
	}

	for _, fact := range facts {
		if !inClass[fact.StudentID] {
			continue
		}
		if f.Installment > 0 && fact.InstallmentNumber != f.Installment {
			continue
		}
		if f.From != nil && fact.PaymentDate.Before(*f.From) {
			continue
		}
		if f.To != nil && fact.PaymentDate.After(*f.To) {
			continue
		}
		stats.TotalCollected = stats.TotalCollected.Add(fact.Amount)
	}

	stats.TotalPending = stats.TotalExpected.Sub(stats.TotalCollected)
	return stats
}
