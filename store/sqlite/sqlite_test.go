package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/inventory"
	"github.com/vidya/school-erp/recon"
	"github.com/vidya/school-erp/store/sqlite"
	"github.com/vidya/school-erp/students"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func rupees(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func seedStudent(t *testing.T, st *sqlite.Store, id, externalID, class string) {
	t.Helper()
	require.NoError(t, st.SaveStudent(context.Background(), students.Student{
		ID:        id,
		StudentID: externalID,
		Name:      "Student " + externalID,
		Class:     class,
		Status:    students.StatusActive,
	}))
}

func seedHead(t *testing.T, st *sqlite.Store, id, name, session string) {
	t.Helper()
	require.NoError(t, st.SaveFeeHead(context.Background(), fees.FeeHead{
		ID:        id,
		Name:      name,
		Session:   session,
		Frequency: fees.FrequencyInstallments,
		Amounts:   map[string]decimal.Decimal{"Class 5": rupees(4000)},
	}))
}

// =============================================================================
// RECEIPTS
// =============================================================================

func TestCreateReceipt_SequentialNumbering(t *testing.T) {
	// GIVEN a fresh store with a student and a fee head
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	line := func(id string, amount int64) fees.FeeTransaction {
		return fees.FeeTransaction{
			ID: id, StudentID: "s1", FeeHeadID: "h1",
			AmountPaid: rupees(amount), InstallmentNumber: 1,
		}
	}

	// WHEN two receipts are created back to back
	first, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r1", StudentID: "s1", PaymentMode: fees.PaymentCash},
		[]fees.FeeTransaction{line("t1", 1000), line("t2", 500)})
	require.NoError(t, err)

	second, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r2", StudentID: "s1", PaymentMode: fees.PaymentOnline},
		[]fees.FeeTransaction{line("t3", 250)})
	require.NoError(t, err)

	// THEN receipt numbers increase from 1 and totals equal the line sums
	assert.Equal(t, int64(1), first.ReceiptNo)
	assert.Equal(t, int64(2), second.ReceiptNo)
	assert.True(t, first.TotalAmount.Equal(rupees(1500)))
	assert.True(t, second.TotalAmount.Equal(rupees(250)))

	got, lines, err := st.GetReceipt(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ReceiptNo)
	assert.Len(t, lines, 2)
}

func TestCreateReceipt_ConcurrentNumbersNeverCollide(t *testing.T) {
	// GIVEN a store and many goroutines issuing receipts at once
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	const n = 20
	results := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := st.CreateReceipt(ctx,
				fees.Receipt{
					ID:          fmt.Sprintf("r%d", i),
					StudentID:   "s1",
					PaymentMode: fees.PaymentCash,
				},
				[]fees.FeeTransaction{{
					ID: fmt.Sprintf("t%d", i), StudentID: "s1", FeeHeadID: "h1",
					AmountPaid: rupees(100), InstallmentNumber: 1,
				}})
			if err == nil {
				results[i] = r.ReceiptNo
			}
		}(i)
	}
	wg.Wait()

	// THEN every receipt got a distinct number and the range is dense
	seen := make(map[int64]bool, n)
	for i, no := range results {
		require.NotZero(t, no, "receipt %d failed to create", i)
		assert.False(t, seen[no], "receipt number %d allocated twice", no)
		seen[no] = true
	}
	assert.True(t, seen[int64(n)], "highest number should equal the receipt count")
}

func TestCreateReceipt_EmptyLinesRejected(t *testing.T) {
	// GIVEN a store
	st := newStore(t)

	// WHEN a receipt is created with no line items
	_, err := st.CreateReceipt(context.Background(),
		fees.Receipt{ID: "r1", StudentID: "s1", PaymentMode: fees.PaymentCash}, nil)

	// THEN the creation is rejected
	assert.ErrorIs(t, err, fees.ErrEmptyReceipt)
}

func TestUpdateReceiptLines_RecomputesTotal(t *testing.T) {
	// GIVEN a receipt with two line items
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	_, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r1", StudentID: "s1", PaymentMode: fees.PaymentCash},
		[]fees.FeeTransaction{
			{ID: "t1", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(1000), InstallmentNumber: 1},
			{ID: "t2", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(1000), InstallmentNumber: 2},
		})
	require.NoError(t, err)

	// WHEN one line amount is corrected
	updated, err := st.UpdateReceiptLines(ctx, "r1",
		map[string]decimal.Decimal{"t1": rupees(750)})

	// THEN the receipt total equals the new sum of its lines
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(rupees(1750)),
		"total = %s", updated.TotalAmount)
}

func TestUpdateReceiptLines_Errors(t *testing.T) {
	// GIVEN a receipt with one line item
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")
	_, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r1", StudentID: "s1", PaymentMode: fees.PaymentCash},
		[]fees.FeeTransaction{
			{ID: "t1", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(1000), InstallmentNumber: 1},
		})
	require.NoError(t, err)

	// WHEN updating an unknown receipt
	_, err = st.UpdateReceiptLines(ctx, "missing", map[string]decimal.Decimal{"t1": rupees(1)})
	// THEN the receipt lookup fails
	assert.ErrorIs(t, err, fees.ErrReceiptNotFound)

	// WHEN updating a line that does not belong to the receipt
	_, err = st.UpdateReceiptLines(ctx, "r1", map[string]decimal.Decimal{"stranger": rupees(1)})
	// THEN the line lookup fails and the receipt is untouched
	assert.ErrorIs(t, err, fees.ErrTransactionNotFound)

	r, _, err := st.GetReceipt(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, r.TotalAmount.Equal(rupees(1000)))
}

// =============================================================================
// FEE CATALOG
// =============================================================================

func TestSaveFeeHead_DuplicateNamePerSession(t *testing.T) {
	// GIVEN a head named Tuition Fee in 2026-27
	st := newStore(t)
	ctx := context.Background()
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	// WHEN a second head reuses the name within the same session
	err := st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "h2", Name: "Tuition Fee", Session: "2026-27",
		Frequency: fees.FrequencyInstallments,
	})
	// THEN the save is rejected as a duplicate
	assert.ErrorIs(t, err, fees.ErrDuplicateFeeHead)

	// WHEN the same name lands in a different session
	err = st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "h3", Name: "Tuition Fee", Session: "2027-28",
		Frequency: fees.FrequencyInstallments,
	})
	// THEN it is allowed
	assert.NoError(t, err)
}

func TestSaveFeeHead_UpdateReplacesAmountSchedule(t *testing.T) {
	// GIVEN a head with a two-class schedule
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "h1", Name: "Exam Fee", Session: "2026-27",
		Frequency: fees.FrequencyInstallments,
		Amounts: map[string]decimal.Decimal{
			"Class 5": rupees(1200),
			"Class 6": rupees(1600),
		},
	}))

	// WHEN the head is saved again with a single-class schedule
	require.NoError(t, st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "h1", Name: "Exam Fee", Session: "2026-27",
		Frequency: fees.FrequencyInstallments,
		Amounts:   map[string]decimal.Decimal{"Class 5": rupees(1500)},
	}))

	// THEN the old schedule is fully replaced
	head, err := st.GetFeeHead(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, head)
	require.Len(t, head.Amounts, 1)
	assert.True(t, head.Amounts["Class 5"].Equal(rupees(1500)))
}

func TestFindTransportHead_CaseInsensitiveName(t *testing.T) {
	// GIVEN a transport head and an ordinary head with a similar name
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "bus", Name: "Bus Route A", Session: "2026-27",
		Frequency: fees.FrequencyInstallments, IsTransportFee: true,
		Amounts: map[string]decimal.Decimal{"Class 5": rupees(6000)},
	}))
	require.NoError(t, st.SaveFeeHead(ctx, fees.FeeHead{
		ID: "notbus", Name: "Library Fee", Session: "2026-27",
		Frequency: fees.FrequencyInstallments,
	}))

	// WHEN looking the route up with different casing
	head, err := st.FindTransportHead(ctx, "bus route a")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "bus", head.ID)

	// THEN non-transport heads never resolve
	head, err = st.FindTransportHead(ctx, "Library Fee")
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestLatestSession_NewestSettingWins(t *testing.T) {
	// GIVEN an empty store
	st := newStore(t)
	ctx := context.Background()

	// WHEN no settings exist
	session, err := st.LatestSession(ctx)
	require.NoError(t, err)
	// THEN the store reports no session rather than an error
	assert.Empty(t, session)

	// WHEN settings are saved for successive sessions
	require.NoError(t, st.SaveGlobalSetting(ctx, fees.GlobalFeeSetting{
		Session: "2025-26", InstallmentCount: 4,
	}))
	require.NoError(t, st.SaveGlobalSetting(ctx, fees.GlobalFeeSetting{
		Session: "2026-27", InstallmentCount: 4,
	}))

	// THEN the newest session is reported
	session, err = st.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-27", session)
}

// =============================================================================
// ENROLLMENTS AND PAYMENT INDEX
// =============================================================================

func TestSetEnrollment_UpsertBySlot(t *testing.T) {
	// GIVEN an opt-out record for one installment
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SetEnrollment(ctx, fees.StudentFeeEnrollment{
		StudentID: "s1", FeeHeadID: "h1", Session: "2026-27",
		InstallmentNumber: 3, IsEnrolled: false,
	}))

	// WHEN the same slot is re-enrolled
	require.NoError(t, st.SetEnrollment(ctx, fees.StudentFeeEnrollment{
		StudentID: "s1", FeeHeadID: "h1", Session: "2026-27",
		InstallmentNumber: 3, IsEnrolled: true,
	}))

	// THEN a single record remains with the latest flag
	list, err := st.ListEnrollments(ctx, "s1", "2026-27")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsEnrolled)

	set, err := st.LoadEnrollmentSet(ctx, "2026-27")
	require.NoError(t, err)
	assert.True(t, set.Enrolled("s1", "h1", 3))
	// Absent slots default to enrolled.
	assert.True(t, set.Enrolled("s1", "h1", 1))
}

func TestLoadPaymentIndex_SumsPerSlot(t *testing.T) {
	// GIVEN two payments against the same installment and one against another
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	_, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r1", StudentID: "s1", PaymentMode: fees.PaymentCash},
		[]fees.FeeTransaction{
			{ID: "t1", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(400), InstallmentNumber: 1},
			{ID: "t2", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(600), InstallmentNumber: 1},
			{ID: "t3", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(250), InstallmentNumber: 2},
		})
	require.NoError(t, err)

	// WHEN the session index is loaded
	idx, err := st.LoadPaymentIndex(ctx, "2026-27")
	require.NoError(t, err)

	// THEN amounts are summed per (student, head, installment)
	assert.True(t, idx.PaidFor("s1", "h1", 1).Equal(rupees(1000)))
	assert.True(t, idx.PaidFor("s1", "h1", 2).Equal(rupees(250)))
	assert.True(t, idx.PaidFor("s1", "h1", 3).IsZero())
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestListCandidates_OnlineUnmatchedOnly(t *testing.T) {
	// GIVEN one online receipt, one cash receipt, and one matched online line
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedHead(t, st, "h1", "Tuition Fee", "2026-27")

	_, err := st.CreateReceipt(ctx,
		fees.Receipt{ID: "r-online", StudentID: "s1", PaymentMode: fees.PaymentOnline},
		[]fees.FeeTransaction{
			{ID: "t-open", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(1000), InstallmentNumber: 1},
			{ID: "t-matched", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(500), InstallmentNumber: 2},
		})
	require.NoError(t, err)

	_, err = st.CreateReceipt(ctx,
		fees.Receipt{ID: "r-cash", StudentID: "s1", PaymentMode: fees.PaymentCash},
		[]fees.FeeTransaction{
			{ID: "t-cash", StudentID: "s1", FeeHeadID: "h1", AmountPaid: rupees(700), InstallmentNumber: 3},
		})
	require.NoError(t, err)

	require.NoError(t, st.SaveEntry(ctx, recon.Entry{
		ID: "e1", Date: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Description: "NEFT", Amount: rupees(500),
		IsReconciled: true, MatchedTransactionID: "t-matched",
	}))

	// WHEN candidates are listed
	candidates, err := st.ListCandidates(ctx)
	require.NoError(t, err)

	// THEN only the unmatched online payment appears
	require.Len(t, candidates, 1)
	assert.Equal(t, "t-open", candidates[0].TransactionID)
	assert.Equal(t, "Student ADM-001", candidates[0].StudentName)
	assert.True(t, candidates[0].Amount.Equal(rupees(1000)))
}

func TestSaveEntries_RoundTrip(t *testing.T) {
	// GIVEN a batch of imported statement entries
	st := newStore(t)
	ctx := context.Background()
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveEntries(ctx, []recon.Entry{
		{ID: "e1", Date: day, Description: "NEFT ONE", Amount: rupees(1000), RefNumber: "UTR1"},
		{ID: "e2", Date: day.AddDate(0, 0, 1), Description: "NEFT TWO", Amount: rupees(2000)},
	}))

	// WHEN the batch is read back
	all, err := st.ListEntries(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := st.GetEntry(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, day, got.Date)
	assert.Equal(t, "NEFT ONE", got.Description)
	assert.Equal(t, "UTR1", got.RefNumber)
	assert.True(t, got.Amount.Equal(rupees(1000)))
	assert.False(t, got.IsReconciled)

	// THEN the unreconciled filter excludes reconciled entries
	got.IsReconciled = true
	got.MatchedTransactionID = "t1"
	require.NoError(t, st.SaveEntry(ctx, *got))

	open, err := st.ListEntries(ctx, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "e2", open[0].ID)
}

// =============================================================================
// INVENTORY
// =============================================================================

func TestApplyMovement_AdjustsQuantity(t *testing.T) {
	// GIVEN an item with 10 units in stock
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveItem(ctx, inventory.Item{
		ID: "i1", Name: "Student Desk", Category: inventory.CategoryFurniture,
		Quantity: 10, ReorderLevel: 3, UnitPrice: rupees(2500),
	}))

	// WHEN stock moves in and then out
	item, err := st.ApplyMovement(ctx, inventory.Movement{
		ItemID: "i1", Type: inventory.MovementIn, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, item.Quantity)

	item, err = st.ApplyMovement(ctx, inventory.Movement{
		ItemID: "i1", Type: inventory.MovementOut, Quantity: 12, Remarks: "issued to classrooms",
	})
	require.NoError(t, err)
	// THEN the balance reflects both movements
	assert.Equal(t, 3, item.Quantity)
}

func TestApplyMovement_Errors(t *testing.T) {
	// GIVEN a store with one item
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveItem(ctx, inventory.Item{
		ID: "i1", Name: "Whiteboard Marker", Category: inventory.CategoryStationery,
		Quantity: 10, ReorderLevel: 5, UnitPrice: rupees(20),
	}))

	// WHEN the movement targets a missing item
	_, err := st.ApplyMovement(ctx, inventory.Movement{
		ItemID: "ghost", Type: inventory.MovementIn, Quantity: 1,
	})
	// THEN the item lookup fails
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	// WHEN the quantity is not positive
	_, err = st.ApplyMovement(ctx, inventory.Movement{
		ItemID: "i1", Type: inventory.MovementIn, Quantity: 0,
	})
	// THEN the movement is rejected
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestSaveItem_UpdateDoesNotResetQuantity(t *testing.T) {
	// GIVEN an item whose stock was adjusted through movements
	st := newStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveItem(ctx, inventory.Item{
		ID: "i1", Name: "Projector", Category: inventory.CategoryElectronics,
		Quantity: 2, ReorderLevel: 1, UnitPrice: rupees(45000),
	}))
	_, err := st.ApplyMovement(ctx, inventory.Movement{
		ItemID: "i1", Type: inventory.MovementIn, Quantity: 3,
	})
	require.NoError(t, err)

	// WHEN the item metadata is edited with a stale quantity
	require.NoError(t, st.SaveItem(ctx, inventory.Item{
		ID: "i1", Name: "Projector (HDMI)", Category: inventory.CategoryElectronics,
		Quantity: 999, ReorderLevel: 2, UnitPrice: rupees(42000),
	}))

	// THEN the stored quantity is preserved
	item, err := st.GetItem(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Projector (HDMI)", item.Name)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 2, item.ReorderLevel)
}

func TestListLowStock_AtOrBelowReorderLevel(t *testing.T) {
	// GIVEN items below, at, and above their reorder levels
	st := newStore(t)
	ctx := context.Background()
	for _, item := range []inventory.Item{
		{ID: "low", Name: "Chalk Box", Category: inventory.CategoryStationery, Quantity: 2, ReorderLevel: 5},
		{ID: "edge", Name: "Dusters", Category: inventory.CategoryStationery, Quantity: 5, ReorderLevel: 5},
		{ID: "ok", Name: "Globes", Category: inventory.CategoryOther, Quantity: 9, ReorderLevel: 5},
	} {
		require.NoError(t, st.SaveItem(ctx, item))
	}

	// WHEN low stock is listed
	low, err := st.ListLowStock(ctx)
	require.NoError(t, err)

	// THEN the boundary item counts as low
	require.Len(t, low, 2)
	assert.Equal(t, "Chalk Box", low[0].Name)
	assert.Equal(t, "Dusters", low[1].Name)
}

// =============================================================================
// STUDENTS
// =============================================================================

func TestStudents_RoundTripAndClassFilter(t *testing.T) {
	// GIVEN students across two classes
	st := newStore(t)
	ctx := context.Background()
	seedStudent(t, st, "s1", "ADM-001", "Class 5")
	seedStudent(t, st, "s2", "ADM-002", "Class 6")

	// WHEN looking up by external ID
	got, err := st.GetStudentByExternalID(ctx, "ADM-002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s2", got.ID)

	// THEN a class filter narrows the listing
	class5, err := st.ListStudents(ctx, "Class 5")
	require.NoError(t, err)
	require.Len(t, class5, 1)
	assert.Equal(t, "ADM-001", class5[0].StudentID)

	all, err := st.ListStudents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// AND unknown lookups return nil rather than an error
	missing, err := st.GetStudent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
