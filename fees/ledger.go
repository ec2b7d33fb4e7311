/*
ledger.go - Per-student ledger report

PURPOSE:
  Produces the chronological debit/credit view for one student in one
  session: fee assignments as debits, payments as credits, with a
  running balance.

SHAPE:
  Debits carry the as-of date (fee assignment has no stored date of its
  own); credits carry the payment date. Entries are sorted by date, and
  the running balance accumulates debit minus credit.

SEE ALSO:
  - engine.go: Supplies applicability and slot semantics
  - api/handlers.go: StudentLedger endpoint
*/
package fees

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidya/school-erp/students"
)

// LedgerEntry is one row of the student ledger.
type LedgerEntry struct {
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

// BuildLedger assembles the debit/credit history for one student. Fee
// assignments become debits (one per enrolled installment slot), the
// student's payments against applicable heads become credits. asOf dates
// the assignment debits.
func BuildLedger(st students.Student, data LiabilityData, txs []FeeTransaction, asOf time.Time) []LedgerEntry {
	var entries []LedgerEntry

	applicable := make(map[string]FeeHead)
	for _, head := range data.Heads {
		amount, ok := headAmount(head, st)
		if !ok {
			continue
		}
		applicable[head.ID] = head

		count := head.InstallmentCount(data.InstallmentCount)
		slots := splitInstallments(amount, count)
		for i := 1; i <= count; i++ {
			if !data.Enrollment.Enrolled(st.ID, head.ID, i) {
				continue
			}
			desc := fmt.Sprintf("Fee Assigned: %s", head.DisplayName())
			if count > 1 {
				desc = fmt.Sprintf("%s (Installment %d)", desc, i)
			}
			entries = append(entries, LedgerEntry{
				Date:        asOf,
				Description: desc,
				Debit:       slots[i-1],
				Credit:      decimal.Zero,
			})
		}
	}

	for _, tx := range txs {
		head, ok := applicable[tx.FeeHeadID]
		if !ok {
			continue
		}
		entries = append(entries, LedgerEntry{
			Date:        tx.PaymentDate,
			Description: fmt.Sprintf("Payment: %s", head.DisplayName()),
			Debit:       decimal.Zero,
			Credit:      tx.AmountPaid,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = running
	}
	return entries
}
