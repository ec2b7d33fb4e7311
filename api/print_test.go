package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidya/school-erp/api"
)

func TestPrintReceipt_SortedLinesAndWords(t *testing.T) {
	// GIVEN a receipt spanning two heads and two installments
	srv := newServer(t)
	tuitionID := seedCatalog(t, srv)
	var exam api.FeeHeadDTO
	status := doJSON(t, srv, http.MethodPost, "/api/fees/heads", map[string]any{
		"name":    "Exam Fee",
		"session": "2026-27",
		"amounts": map[string]float64{"Class 5": 1200},
	}, &exam)
	require.Equal(t, http.StatusCreated, status)
	st := seedStudent(t, srv, "ADM-001")

	var rc api.ReceiptDTO
	status = doJSON(t, srv, http.MethodPost, "/api/fees/receipts", map[string]any{
		"student_id":   st.ID,
		"payment_mode": "CASH",
		"payment_date": "2026-04-08",
		"lines": []map[string]any{
			{"fee_head_id": tuitionID, "installment_number": 2, "amount": 1000.0},
			{"fee_head_id": tuitionID, "installment_number": 1, "amount": 1000.0},
			{"fee_head_id": exam.ID, "installment_number": 1, "amount": 300.0},
		},
	}, &rc)
	require.Equal(t, http.StatusCreated, status)

	// WHEN the printable view is requested
	var view api.ReceiptPrintDTO
	status = doJSON(t, srv, http.MethodGet, "/api/fees/receipts/"+rc.ID+"/print", nil, &view)

	// THEN lines are sorted by head name, then installment
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Receipt.Lines, 3)
	assert.Equal(t, "Exam Fee", view.Receipt.Lines[0].FeeHeadName)
	assert.Equal(t, "Tuition Fee", view.Receipt.Lines[1].FeeHeadName)
	assert.Equal(t, 1, view.Receipt.Lines[1].InstallmentNumber)
	assert.Equal(t, 2, view.Receipt.Lines[2].InstallmentNumber)

	// AND the student and the amount in words come along
	assert.Equal(t, "ADM-001", view.Student.StudentID)
	assert.Equal(t, 2300.0, view.Receipt.TotalAmount)
	assert.Equal(t, "Rupees Two Thousand Three Hundred Only", view.AmountInWords)
}

func TestPrintReceipt_NotFound(t *testing.T) {
	// GIVEN an empty server
	srv := newServer(t)

	// WHEN printing a receipt that does not exist
	status := doJSON(t, srv, http.MethodGet, "/api/fees/receipts/ghost/print", nil, nil)

	// THEN the lookup misses
	assert.Equal(t, http.StatusNotFound, status)
}
