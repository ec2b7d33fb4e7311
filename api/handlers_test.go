/*
handlers_test.go - End-to-end tests for the HTTP API

Tests run against a real router and an in-memory SQLite store. Each
test seeds its own data through the API, the same way a client would.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidya/school-erp/api"
	"github.com/vidya/school-erp/store/sqlite"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store), nil))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends a request with a JSON body and decodes the JSON response
// into out (when non-nil). It returns the response status code.
func doJSON(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// seedCatalog configures the 2026-27 session with four installments and
// one tuition head of 4000 for Class 5. Returns the head ID.
func seedCatalog(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	status := doJSON(t, srv, http.MethodPost, "/api/fees/settings", map[string]any{
		"session":           "2026-27",
		"installment_count": 4,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var head api.FeeHeadDTO
	status = doJSON(t, srv, http.MethodPost, "/api/fees/heads", map[string]any{
		"name":    "Tuition Fee",
		"session": "2026-27",
		"amounts": map[string]float64{"Class 5": 4000},
	}, &head)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, head.ID)
	return head.ID
}

func seedStudent(t *testing.T, srv *httptest.Server, externalID string) api.StudentDTO {
	t.Helper()

	var st api.StudentDTO
	status := doJSON(t, srv, http.MethodPost, "/api/students", map[string]any{
		"student_id": externalID,
		"name":       "Diya Patel",
		"class":      "Class 5",
	}, &st)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, st.ID)
	return st
}

// =============================================================================
// STUDENTS AND DUES
// =============================================================================

func TestPendingFees_FourEqualInstallments(t *testing.T) {
	// GIVEN a 4-installment session with a 4000 tuition head and a student
	srv := newServer(t)
	seedCatalog(t, srv)
	seedStudent(t, srv, "ADM-001")

	// WHEN the session dues report is requested
	var report []api.StudentDuesDTO
	status := doJSON(t, srv, http.MethodGet, "/api/students/pending-fees", nil, &report)

	// THEN the student owes 4000 split into four slots of 1000
	require.Equal(t, http.StatusOK, status)
	require.Len(t, report, 1)
	d := report[0]
	assert.Equal(t, "ADM-001", d.StudentID)
	assert.Equal(t, 4000.0, d.TotalDue)
	assert.Equal(t, 0.0, d.TotalPaid)
	assert.Equal(t, 4000.0, d.TotalPending)
	require.Len(t, d.Installments, 4)
	for _, inst := range d.Installments {
		require.Len(t, inst.Heads, 1)
		assert.Equal(t, 1000.0, inst.Heads[0].Due)
		assert.Equal(t, "Tuition Fee", inst.Heads[0].Name)
	}
}

func TestCreateStudent_DuplicateExternalIDRejected(t *testing.T) {
	// GIVEN a registered student
	srv := newServer(t)
	seedCatalog(t, srv)
	seedStudent(t, srv, "ADM-001")

	// WHEN a second student reuses the admission number
	status := doJSON(t, srv, http.MethodPost, "/api/students", map[string]any{
		"student_id": "ADM-001",
		"name":       "Someone Else",
		"class":      "Class 6",
	}, nil)

	// THEN the creation conflicts
	assert.Equal(t, http.StatusConflict, status)
}

func TestOptOut_RemovesSlotFromDues(t *testing.T) {
	// GIVEN a student opted out of the fourth tuition installment
	srv := newServer(t)
	headID := seedCatalog(t, srv)
	st := seedStudent(t, srv, "ADM-001")

	status := doJSON(t, srv, http.MethodPost, "/api/fees/enrollments", map[string]any{
		"student_id":         st.ID,
		"fee_head_id":        headID,
		"installment_number": 4,
		"is_enrolled":        false,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	// WHEN the student's dues are requested
	var d api.StudentDuesDTO
	status = doJSON(t, srv, http.MethodGet, "/api/students/"+st.ID+"/dues", nil, &d)

	// THEN only three slots remain
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3000.0, d.TotalDue)
	for _, inst := range d.Installments {
		assert.NotEqual(t, 4, inst.Installment)
	}
}

// =============================================================================
// RECEIPTS AND THE TRANSFER GATE
// =============================================================================

func TestReceipts_NumberingAndTransferGate(t *testing.T) {
	// GIVEN a student owing 4000 across four installments
	srv := newServer(t)
	headID := seedCatalog(t, srv)
	st := seedStudent(t, srv, "ADM-001")

	pay := func(installment int, amount float64) api.ReceiptDTO {
		var rc api.ReceiptDTO
		status := doJSON(t, srv, http.MethodPost, "/api/fees/receipts", map[string]any{
			"student_id":   st.ID,
			"payment_mode": "CASH",
			"payment_date": "2026-04-08",
			"lines": []map[string]any{{
				"fee_head_id":        headID,
				"installment_number": installment,
				"amount":             amount,
			}},
		}, &rc)
		require.Equal(t, http.StatusCreated, status)
		return rc
	}

	// WHEN the first installment is paid
	first := pay(1, 1000)
	assert.Equal(t, int64(1), first.ReceiptNo)
	assert.Equal(t, 1000.0, first.TotalAmount)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, "Tuition Fee", first.Lines[0].FeeHeadName)

	// THEN a transfer certificate is still blocked by the outstanding 3000
	tcBody := map[string]any{
		"name":   st.Name,
		"class":  st.Class,
		"status": "TC",
	}
	var errResp api.ErrorResponse
	status := doJSON(t, srv, http.MethodPut, "/api/students/"+st.ID, tcBody, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errResp.Error, "3000")

	// WHEN the remaining installments are settled
	second := pay(2, 1000)
	assert.Equal(t, int64(2), second.ReceiptNo)
	pay(3, 1000)
	pay(4, 1000)

	// THEN the transfer goes through
	var updated api.StudentDTO
	status = doJSON(t, srv, http.MethodPut, "/api/students/"+st.ID, tcBody, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TC", updated.Status)

	// AND the fully paid student drops out of the dues report
	var report []api.StudentDuesDTO
	status = doJSON(t, srv, http.MethodGet, "/api/students/pending-fees", nil, &report)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, report)
}

func TestCreateReceipt_UnknownHeadRejected(t *testing.T) {
	// GIVEN a student but no such fee head
	srv := newServer(t)
	seedCatalog(t, srv)
	st := seedStudent(t, srv, "ADM-001")

	// WHEN a receipt references a head that does not exist
	status := doJSON(t, srv, http.MethodPost, "/api/fees/receipts", map[string]any{
		"student_id":   st.ID,
		"payment_mode": "CASH",
		"lines": []map[string]any{{
			"fee_head_id":        "ghost-head",
			"installment_number": 1,
			"amount":             500.0,
		}},
	}, nil)

	// THEN the receipt is rejected before anything is written
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateReceipt_RecomputesTotal(t *testing.T) {
	// GIVEN a receipt with one 1000 line
	srv := newServer(t)
	headID := seedCatalog(t, srv)
	st := seedStudent(t, srv, "ADM-001")

	var rc api.ReceiptDTO
	status := doJSON(t, srv, http.MethodPost, "/api/fees/receipts", map[string]any{
		"student_id":   st.ID,
		"payment_mode": "CASH",
		"lines": []map[string]any{{
			"fee_head_id":        headID,
			"installment_number": 1,
			"amount":             1000.0,
		}},
	}, &rc)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, rc.Lines, 1)

	// WHEN the line amount is corrected
	var updated api.ReceiptDTO
	status = doJSON(t, srv, http.MethodPut, "/api/fees/receipts/"+rc.ID, map[string]any{
		"amounts": map[string]float64{rc.Lines[0].ID: 750},
	}, &updated)

	// THEN the stored total matches the corrected lines
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 750.0, updated.TotalAmount)
}

func TestFeeHead_ValidationAndDuplicates(t *testing.T) {
	// GIVEN a configured session
	srv := newServer(t)
	seedCatalog(t, srv)

	// WHEN a head is posted without an amount schedule
	status := doJSON(t, srv, http.MethodPost, "/api/fees/heads", map[string]any{
		"name":    "Exam Fee",
		"session": "2026-27",
	}, nil)
	// THEN validation rejects it
	assert.Equal(t, http.StatusBadRequest, status)

	// WHEN a head duplicates an existing name in the session
	status = doJSON(t, srv, http.MethodPost, "/api/fees/heads", map[string]any{
		"name":    "Tuition Fee",
		"session": "2026-27",
		"amounts": map[string]float64{"Class 5": 100},
	}, nil)
	// THEN the catalog reports a conflict
	assert.Equal(t, http.StatusConflict, status)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconciliation_ImportMatchUndo(t *testing.T) {
	// GIVEN an online payment of 1000 on 2026-04-08
	srv := newServer(t)
	headID := seedCatalog(t, srv)
	st := seedStudent(t, srv, "ADM-001")

	var rc api.ReceiptDTO
	status := doJSON(t, srv, http.MethodPost, "/api/fees/receipts", map[string]any{
		"student_id":   st.ID,
		"payment_mode": "ONLINE",
		"payment_date": "2026-04-08",
		"lines": []map[string]any{{
			"fee_head_id":        headID,
			"installment_number": 1,
			"amount":             1000.0,
		}},
	}, &rc)
	require.Equal(t, http.StatusCreated, status)

	// AND a statement entry one day later with the same amount
	var entry api.BankEntryDTO
	status = doJSON(t, srv, http.MethodPost, "/api/fees/reconciliation/manual-entry", map[string]any{
		"date":        "2026-04-09",
		"description": "NEFT DIYA PATEL",
		"amount":      1000.0,
	}, &entry)
	require.Equal(t, http.StatusCreated, status)

	// WHEN the matcher runs
	var res api.AutoMatchResultDTO
	status = doJSON(t, srv, http.MethodPost, "/api/fees/reconciliation/auto-match", nil, &res)
	require.Equal(t, http.StatusOK, status)

	// THEN the entry is linked to the payment
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 0, res.Remaining)

	var open []api.BankEntryDTO
	status = doJSON(t, srv, http.MethodGet, "/api/fees/reconciliation/entries?unreconciled=true", nil, &open)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, open)

	// AND the payment no longer appears as a candidate
	var candidates []api.CandidateDTO
	status = doJSON(t, srv, http.MethodGet, "/api/fees/reconciliation/pending-transactions", nil, &candidates)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, candidates)

	// WHEN the link is reconciled a second time
	status = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/fees/reconciliation/%s/reconcile", entry.ID), nil, nil)
	// THEN the double reconcile conflicts
	assert.Equal(t, http.StatusConflict, status)

	// WHEN the link is undone
	var undone api.BankEntryDTO
	status = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/fees/reconciliation/%s/unreconcile", entry.ID), nil, &undone)
	// THEN the entry is open again and the payment is a candidate
	require.Equal(t, http.StatusOK, status)
	assert.False(t, undone.IsReconciled)

	status = doJSON(t, srv, http.MethodGet, "/api/fees/reconciliation/pending-transactions", nil, &candidates)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, candidates, 1)
}

func TestStatementImport_RawCSVBody(t *testing.T) {
	// GIVEN a raw CSV statement body
	srv := newServer(t)
	csv := strings.Join([]string{
		"Date,Narration,Credit,Ref No",
		"2026-04-10,NEFT ONE,1000,UTR1",
		"2026-04-11,NEFT TWO,2000,UTR2",
		"bad-date,NEFT THREE,3000,UTR3",
	}, "\n")

	// WHEN it is posted to the import endpoint
	resp, err := srv.Client().Post(
		srv.URL+"/api/fees/reconciliation/import", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res api.StatementImportResultDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

	// THEN the parseable rows import and the bad one is reported
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 4")

	var entries []api.BankEntryDTO
	status := doJSON(t, srv, http.MethodGet, "/api/fees/reconciliation/entries", nil, &entries)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, entries, 2)
}

// =============================================================================
// INVENTORY
// =============================================================================

func TestInventory_MovementsAndLowStock(t *testing.T) {
	// GIVEN an item with 10 units and a reorder level of 5
	srv := newServer(t)

	var item api.ItemDTO
	status := doJSON(t, srv, http.MethodPost, "/api/inventory/items", map[string]any{
		"name":          "Student Desk",
		"category":      "FURNITURE",
		"quantity":      10,
		"reorder_level": 5,
		"unit_price":    2500.0,
	}, &item)
	require.Equal(t, http.StatusCreated, status)
	assert.False(t, item.LowStock)

	// WHEN stock is issued down to the reorder level
	var after api.ItemDTO
	status = doJSON(t, srv, http.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":  item.ID,
		"type":     "OUT",
		"quantity": 5,
		"remarks":  "issued to classrooms",
	}, &after)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, after.Quantity)
	assert.True(t, after.LowStock)

	// THEN the low-stock report lists it
	var low []api.ItemDTO
	status = doJSON(t, srv, http.MethodGet, "/api/inventory/low-stock", nil, &low)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)

	// AND movements against unknown items miss
	status = doJSON(t, srv, http.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":  "ghost",
		"type":     "IN",
		"quantity": 1,
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestSeedDemo_LoadsWorkingDataset(t *testing.T) {
	// GIVEN an empty server
	srv := newServer(t)

	// WHEN the demo dataset is seeded
	status := doJSON(t, srv, http.MethodPost, "/api/admin/seed-demo", nil, nil)
	require.Equal(t, http.StatusOK, status)

	// THEN the roster, dues report, and low-stock list are populated
	var report []api.StudentDuesDTO
	status = doJSON(t, srv, http.MethodGet, "/api/students/pending-fees", nil, &report)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, report, 4)
	for _, d := range report {
		assert.Greater(t, d.TotalPending, 0.0, d.StudentID)
	}

	var low []api.ItemDTO
	status = doJSON(t, srv, http.MethodGet, "/api/inventory/low-stock", nil, &low)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, low, 1)
	assert.Equal(t, "Student Desk", low[0].Name)

	// AND a reset clears everything again
	status = doJSON(t, srv, http.MethodPost, "/api/admin/reset", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var list []api.StudentDTO
	status = doJSON(t, srv, http.MethodGet, "/api/students", nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)
}

// =============================================================================
// BULK IMPORT
// =============================================================================

func TestBulkImport_CreatesAndReportsErrors(t *testing.T) {
	// GIVEN a configured session with a transport head
	srv := newServer(t)
	seedCatalog(t, srv)
	var bus api.FeeHeadDTO
	status := doJSON(t, srv, http.MethodPost, "/api/fees/heads", map[string]any{
		"name":             "Bus Route A",
		"session":          "2026-27",
		"is_transport_fee": true,
		"amounts":          map[string]float64{"Class 5": 6000},
	}, &bus)
	require.Equal(t, http.StatusCreated, status)

	// WHEN spreadsheet rows are imported, one of them incomplete
	var res api.ImportResultDTO
	status = doJSON(t, srv, http.MethodPost, "/api/students/bulk-import", map[string]any{
		"rows": [][]string{
			{"ADM-001", "Diya Patel", "Class 5", "9876500001", "yes", "bus route a"},
			{"ADM-002", "", "Class 5"},
		},
	}, &res)
	require.Equal(t, http.StatusOK, status)

	// THEN the valid row imports with its transport head resolved
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 2")

	var list []api.StudentDTO
	status = doJSON(t, srv, http.MethodGet, "/api/students", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasTransport)
	assert.Equal(t, bus.ID, list[0].TransportFeeHeadID)
}
