/*
handlers.go - HTTP API handlers for the school administration backend

PURPOSE:
  Exposes the fee, student, reconciliation, and inventory engines via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                    List students
    POST   /api/students                    Create student
    GET    /api/students/{id}               Get student details
    PUT    /api/students/{id}               Update student (TC gate applies)
    PATCH  /api/students/{id}               Same as PUT
    GET    /api/students/{id}/dues          Per-student liability breakdown
    GET    /api/students/{id}/ledger        Debit/credit ledger
    GET    /api/students/pending-fees       Session-wide dues report
    GET    /api/students/stats              Collection summary
    POST   /api/students/bulk-import        Spreadsheet import

  Fees:
    GET/POST       /api/fees/heads          Fee catalog
    PUT/DELETE     /api/fees/heads/{id}
    GET/POST       /api/fees/settings       Session installment policy
    GET/POST       /api/fees/enrollments    Opt-out records
    GET/POST       /api/fees/receipts       Payment recording
    GET/PUT        /api/fees/receipts/{id}
    GET            /api/fees/receipts/{id}/print  Printable view
    GET            /api/fees/transactions   Payment history

  Reconciliation:
    POST /api/fees/reconciliation/import               CSV statement upload
    POST /api/fees/reconciliation/auto-match           Run the matcher
    GET  /api/fees/reconciliation/entries              Statement entries
    GET  /api/fees/reconciliation/pending-transactions Unmatched online payments
    POST /api/fees/reconciliation/{id}/reconcile       Manual link
    POST /api/fees/reconciliation/{id}/unreconcile     Undo
    POST /api/fees/reconciliation/manual-entry         Hand-keyed entry

  Inventory:
    GET/POST /api/inventory/items
    GET/PUT  /api/inventory/items/{id}
    POST     /api/inventory/movements
    GET      /api/inventory/low-stock

SESSION RESOLUTION:
  Endpoints that operate on a session accept ?session=YYYY-YY. When
  omitted, the most recently configured session is used. Resolution
  happens once per request; everything downstream computes over a
  consistent snapshot.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, blocked transfers
  - 404: Resource not found
  - 409: Conflict (duplicate head, double reconcile)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - fees/engine.go: Liability computation
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/inventory"
	"github.com/vidya/school-erp/recon"
	"github.com/vidya/school-erp/store/sqlite"
	"github.com/vidya/school-erp/students"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// session resolves the working session: explicit query parameter, else
// the latest configured one.
func (h *Handler) session(r *http.Request) (string, error) {
	if s := r.URL.Query().Get("session"); s != "" {
		return s, nil
	}
	return h.Store.LatestSession(r.Context())
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns students, optionally filtered by class.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	sts, err := h.Store.ListStudents(r.Context(), r.URL.Query().Get("class"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, len(sts))
	for i, st := range sts {
		dtos[i] = toStudentDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*st))
}

// CreateStudent creates a new student.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.Store.GetStudentByExternalID(r.Context(), req.StudentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check student", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Student ID already registered", nil)
		return
	}

	st := students.Student{
		ID:                 uuid.NewString(),
		StudentID:          req.StudentID,
		Name:               req.Name,
		Class:              req.Class,
		Status:             students.StatusActive,
		HasTransport:       req.HasTransport,
		TransportFeeHeadID: req.TransportFeeHeadID,
		ContactNumber:      req.ContactNumber,
		Address:            req.Address,
		CreatedAt:          time.Now().UTC(),
	}
	if err := h.Store.SaveStudent(r.Context(), st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(st))
}

// UpdateStudent updates a student. A status change to TC runs the
// transfer gate and is rejected while dues are pending.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.Store.GetStudent(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}

	var req UpdateStudentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if req.Status == string(students.StatusTC) && st.Status != students.StatusTC {
		session, err := h.session(r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
			return
		}
		data, err := fees.LoadLiabilityData(ctx, h.Store, session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load fee data", err)
			return
		}
		if err := fees.TransferGate(*st, data); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	st.Name = req.Name
	st.Class = req.Class
	if req.Status != "" {
		st.Status = students.Status(req.Status)
	}
	st.HasTransport = req.HasTransport
	st.TransportFeeHeadID = req.TransportFeeHeadID
	st.ContactNumber = req.ContactNumber
	st.Address = req.Address

	if err := h.Store.SaveStudent(ctx, *st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update student", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*st))
}

// BulkImport creates or updates students from spreadsheet rows.
func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var req BulkImportRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	resolve := func(name string) (string, bool) {
		head, err := h.Store.FindTransportHead(ctx, name)
		if err != nil || head == nil {
			return "", false
		}
		return head.ID, true
	}

	res, err := students.BulkImport(ctx, h.Store, req.Rows, resolve)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Import failed", err)
		return
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, ImportResultDTO{
		Created: res.Created,
		Updated: res.Updated,
		Errors:  errs,
	})
}

// =============================================================================
// DUES HANDLERS
// =============================================================================

// PendingFees returns the session-wide dues report, sorted by pending
// balance descending. ?show_all=true includes fully paid students.
func (h *Handler) PendingFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}

	sts, err := h.Store.ListStudents(ctx, r.URL.Query().Get("class"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	data, err := fees.LoadLiabilityData(ctx, h.Store, session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load fee data", err)
		return
	}

	showAll := r.URL.Query().Get("show_all") == "true"
	dues := fees.ComputeDues(sts, data, showAll)

	dtos := make([]StudentDuesDTO, len(dues))
	for i, d := range dues {
		dtos[i] = toDuesDTO(d, data)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StudentDues returns one student's liability breakdown.
func (h *Handler) StudentDues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.Store.GetStudent(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}

	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	data, err := fees.LoadLiabilityData(ctx, h.Store, session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load fee data", err)
		return
	}

	writeJSON(w, http.StatusOK, toDuesDTO(fees.ComputeStudentDues(*st, data), data))
}

// StudentLedger returns the debit/credit history for one student.
func (h *Handler) StudentLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.Store.GetStudent(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}

	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	data, err := fees.LoadLiabilityData(ctx, h.Store, session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load fee data", err)
		return
	}
	txs, err := h.Store.ListTransactions(ctx, st.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	entries := fees.BuildLedger(*st, data, txs, sessionStart(session))
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			Date:        e.Date.Format("2006-01-02"),
			Description: e.Description,
			Debit:       money(e.Debit),
			Credit:      money(e.Credit),
			Balance:     money(e.Balance),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StudentStats returns the session collection summary.
func (h *Handler) StudentStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}

	sts, err := h.Store.ListStudents(ctx, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}
	data, err := fees.LoadLiabilityData(ctx, h.Store, session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load fee data", err)
		return
	}
	facts, err := h.Store.ListSessionTransactions(ctx, session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	q := r.URL.Query()
	filter := fees.StatsFilter{Class: q.Get("class")}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("installment"); v != "" {
		filter.Installment, _ = strconv.Atoi(v)
	}

	stats := fees.ComputeStats(sts, data, facts, filter)
	writeJSON(w, http.StatusOK, StatsDTO{
		Session:        session,
		TotalStudents:  stats.TotalStudents,
		ActiveStudents: stats.ActiveStudents,
		TCStudents:     stats.TCStudents,
		TotalExpected:  money(stats.TotalExpected),
		TotalCollected: money(stats.TotalCollected),
		TotalPending:   money(stats.TotalPending),
	})
}

// =============================================================================
// FEE CATALOG HANDLERS
// =============================================================================

// ListFeeHeads returns the fee catalog for a session.
func (h *Handler) ListFeeHeads(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	heads, err := h.Store.ListFeeHeads(r.Context(), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee heads", err)
		return
	}

	dtos := make([]FeeHeadDTO, len(heads))
	for i, head := range heads {
		dtos[i] = toFeeHeadDTO(head)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFeeHead adds a head to the catalog.
func (h *Handler) CreateFeeHead(w http.ResponseWriter, r *http.Request) {
	var req SaveFeeHeadRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	head := feeHeadFromRequest(uuid.NewString(), req)
	if err := h.Store.SaveFeeHead(r.Context(), head); err != nil {
		if errors.Is(err, fees.ErrDuplicateFeeHead) {
			writeError(w, http.StatusConflict, "Fee head already exists for this session", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save fee head", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeHeadDTO(head))
}

// UpdateFeeHead replaces a head's definition and amount schedule.
func (h *Handler) UpdateFeeHead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetFeeHead(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get fee head", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Fee head not found", nil)
		return
	}

	var req SaveFeeHeadRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	head := feeHeadFromRequest(id, req)
	if err := h.Store.SaveFeeHead(r.Context(), head); err != nil {
		if errors.Is(err, fees.ErrDuplicateFeeHead) {
			writeError(w, http.StatusConflict, "Fee head already exists for this session", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save fee head", err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeHeadDTO(head))
}

// DeleteFeeHead removes a head from the catalog.
func (h *Handler) DeleteFeeHead(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFeeHead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete fee head", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func feeHeadFromRequest(id string, req SaveFeeHeadRequest) fees.FeeHead {
	frequency := fees.Frequency(req.Frequency)
	if frequency == "" {
		frequency = fees.FrequencyInstallments
	}
	amounts := make(map[string]decimal.Decimal, len(req.Amounts))
	for class, amt := range req.Amounts {
		amounts[class] = decimal.NewFromFloat(amt)
	}
	return fees.FeeHead{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Session:         req.Session,
		Frequency:       frequency,
		DueDay:          req.DueDay,
		DueMonths:       req.DueMonths,
		LateFeeAmount:   decimal.NewFromFloat(req.LateFeeAmount),
		GracePeriodDays: req.GracePeriodDays,
		IsTransportFee:  req.IsTransportFee,
		Amounts:         amounts,
	}
}

// GetSettings returns the session's fee settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	setting, err := h.Store.GetGlobalSetting(r.Context(), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings", err)
		return
	}
	if setting == nil {
		writeError(w, http.StatusNotFound, "No settings for session", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSettingDTO(*setting))
}

// SaveSettings creates or updates a session's fee settings.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req SaveGlobalSettingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	setting := fees.GlobalFeeSetting{
		Session:          req.Session,
		InstallmentCount: req.InstallmentCount,
		DueMonths:        req.DueMonths,
		DueDay:           req.DueDay,
		LateFeeAmount:    decimal.NewFromFloat(req.LateFeeAmount),
		LateFeeStartDay:  req.LateFeeStartDay,
		LateFeeFrequency: fees.LateFeeFrequency(req.LateFeeFrequency),
	}
	if err := h.Store.SaveGlobalSetting(r.Context(), setting); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingDTO(setting))
}

func toSettingDTO(s fees.GlobalFeeSetting) GlobalSettingDTO {
	return GlobalSettingDTO{
		Session:          s.Session,
		InstallmentCount: fees.ResolveInstallmentCount(&s),
		DueMonths:        s.DueMonths,
		DueDay:           s.DueDay,
		LateFeeAmount:    money(s.LateFeeAmount),
		LateFeeStartDay:  s.LateFeeStartDay,
		LateFeeFrequency: string(s.LateFeeFrequency),
	}
}

// =============================================================================
// ENROLLMENT HANDLERS
// =============================================================================

// ListEnrollments returns opt-out records for a student in a session.
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	records, err := h.Store.ListEnrollments(r.Context(), r.URL.Query().Get("student_id"), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}

	dtos := make([]EnrollmentDTO, len(records))
	for i, e := range records {
		dtos[i] = EnrollmentDTO{
			ID:                e.ID,
			StudentID:         e.StudentID,
			FeeHeadID:         e.FeeHeadID,
			Session:           e.Session,
			InstallmentNumber: e.InstallmentNumber,
			IsEnrolled:        e.IsEnrolled,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetEnrollment toggles one liability slot. Records are stored on both
// transitions; the engine treats absence as enrolled.
func (h *Handler) SetEnrollment(w http.ResponseWriter, r *http.Request) {
	var req SetEnrollmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session := req.Session
	if session == "" {
		var err error
		if session, err = h.Store.LatestSession(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
			return
		}
	}

	e := fees.StudentFeeEnrollment{
		StudentID:         req.StudentID,
		FeeHeadID:         req.FeeHeadID,
		Session:           session,
		InstallmentNumber: req.InstallmentNumber,
		IsEnrolled:        *req.IsEnrolled,
	}
	if err := h.Store.SetEnrollment(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save enrollment", err)
		return
	}
	writeJSON(w, http.StatusOK, EnrollmentDTO{
		StudentID:         e.StudentID,
		FeeHeadID:         e.FeeHeadID,
		Session:           e.Session,
		InstallmentNumber: e.InstallmentNumber,
		IsEnrolled:        e.IsEnrolled,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CreateReceipt records a payment against one or more liability slots
// and allocates the next receipt number.
func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req CreateReceiptRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	st, err := h.Store.GetStudent(ctx, req.StudentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != "" {
		if paymentDate, err = time.Parse("2006-01-02", req.PaymentDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	receipt := fees.Receipt{
		ID:          uuid.NewString(),
		StudentID:   st.ID,
		PaymentMode: fees.PaymentMode(req.PaymentMode),
		Remarks:     req.Remarks,
		PaymentDate: paymentDate,
	}
	lines := make([]fees.FeeTransaction, len(req.Lines))
	for i, line := range req.Lines {
		head, err := h.Store.GetFeeHead(ctx, line.FeeHeadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get fee head", err)
			return
		}
		if head == nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Unknown fee head: %s", line.FeeHeadID), nil)
			return
		}
		lines[i] = fees.FeeTransaction{
			ID:                uuid.NewString(),
			StudentID:         st.ID,
			FeeHeadID:         line.FeeHeadID,
			AmountPaid:        decimal.NewFromFloat(line.Amount),
			InstallmentNumber: line.InstallmentNumber,
			PaymentDate:       paymentDate,
			Remarks:           line.Remarks,
		}
	}

	created, err := h.Store.CreateReceipt(ctx, receipt, lines)
	if err != nil {
		if errors.Is(err, fees.ErrEmptyReceipt) {
			writeError(w, http.StatusBadRequest, "Receipt needs at least one line", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create receipt", err)
		return
	}

	dto := toReceiptDTO(*created)
	dto.StudentName = st.Name
	dto.Lines = h.lineDTOs(r, lines)
	writeJSON(w, http.StatusCreated, dto)
}

// GetReceipt returns a receipt with its line items.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, lines, err := h.Store.GetReceipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get receipt", err)
		return
	}
	if receipt == nil {
		writeError(w, http.StatusNotFound, "Receipt not found", nil)
		return
	}

	dto := toReceiptDTO(*receipt)
	if st, err := h.Store.GetStudent(r.Context(), receipt.StudentID); err == nil && st != nil {
		dto.StudentName = st.Name
	}
	dto.Lines = h.lineDTOs(r, lines)
	writeJSON(w, http.StatusOK, dto)
}

// ListReceipts returns receipts, newest first.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.Store.ListReceipts(r.Context(), r.URL.Query().Get("student_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}

	dtos := make([]ReceiptDTO, len(receipts))
	for i, rc := range receipts {
		dtos[i] = toReceiptDTO(rc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateReceipt corrects line amounts; the stored total is recomputed
// from the persisted lines.
func (h *Handler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var req UpdateReceiptRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	amounts := make(map[string]decimal.Decimal, len(req.Amounts))
	for txID, amt := range req.Amounts {
		if amt <= 0 {
			writeError(w, http.StatusBadRequest, "Line amounts must be positive", nil)
			return
		}
		amounts[txID] = decimal.NewFromFloat(amt)
	}

	receipt, err := h.Store.UpdateReceiptLines(r.Context(), chi.URLParam(r, "id"), amounts)
	if err != nil {
		switch {
		case errors.Is(err, fees.ErrReceiptNotFound):
			writeError(w, http.StatusNotFound, "Receipt not found", nil)
		case errors.Is(err, fees.ErrTransactionNotFound):
			writeError(w, http.StatusBadRequest, "Transaction does not belong to receipt", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update receipt", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTO(*receipt))
}

// ListTransactions returns the payment history.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context(), r.URL.Query().Get("student_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, h.lineDTOs(r, txs))
}

// lineDTOs converts transactions, resolving head display names.
func (h *Handler) lineDTOs(r *http.Request, txs []fees.FeeTransaction) []TransactionDTO {
	names := make(map[string]string)
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		name, ok := names[tx.FeeHeadID]
		if !ok {
			if head, err := h.Store.GetFeeHead(r.Context(), tx.FeeHeadID); err == nil && head != nil {
				name = head.DisplayName()
			}
			names[tx.FeeHeadID] = name
		}
		dtos[i] = toTransactionDTO(tx, name)
	}
	return dtos
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// ImportStatement parses an uploaded bank-statement CSV and stores its
// lines. Accepts multipart form uploads (field "file") or a raw CSV body.
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		reader = file
	}

	res, err := recon.ParseCSV(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse statement", err)
		return
	}

	if err := h.Store.SaveEntries(r.Context(), res.Entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entries", err)
		return
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, StatementImportResultDTO{
		Imported: res.Imported,
		Errors:   errs,
	})
}

// AutoMatch runs the matcher over unreconciled entries.
func (h *Handler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	rec := &recon.Reconciler{Store: h.Store}
	res, err := rec.AutoMatch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Auto-match failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AutoMatchResultDTO{
		Matched:   res.Matched,
		Remaining: res.Remaining,
	})
}

// ListEntries returns statement entries. ?unreconciled=true filters.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListEntries(r.Context(), r.URL.Query().Get("unreconciled") == "true")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]BankEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toBankEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PendingTransactions returns online payments not yet linked to a
// statement entry.
func (h *Handler) PendingTransactions(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Store.ListCandidates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list candidates", err)
		return
	}

	dtos := make([]CandidateDTO, len(candidates))
	for i, c := range candidates {
		dtos[i] = CandidateDTO{
			TransactionID: c.TransactionID,
			StudentName:   c.StudentName,
			Amount:        money(c.Amount),
			PaymentDate:   c.PaymentDate.Format("2006-01-02"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Reconcile links one statement entry to a payment, or marks it
// reconciled without linkage when no transaction is given.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec := &recon.Reconciler{Store: h.Store}
	entry, err := rec.Reconcile(r.Context(), chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		h.writeReconError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBankEntryDTO(*entry))
}

// Unreconcile clears an entry's reconciliation state.
func (h *Handler) Unreconcile(w http.ResponseWriter, r *http.Request) {
	rec := &recon.Reconciler{Store: h.Store}
	entry, err := rec.Unreconcile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeReconError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBankEntryDTO(*entry))
}

// ManualEntry adds a statement line by hand.
func (h *Handler) ManualEntry(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	entry := recon.Entry{
		ID:          uuid.NewString(),
		Date:        date,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(req.Amount),
		RefNumber:   req.RefNumber,
	}
	if err := h.Store.SaveEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBankEntryDTO(entry))
}

func (h *Handler) writeReconError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recon.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "Statement entry not found", nil)
	case errors.Is(err, recon.ErrAlreadyReconciled):
		writeError(w, http.StatusConflict, "Entry already reconciled", nil)
	case errors.Is(err, recon.ErrNotReconciled):
		writeError(w, http.StatusConflict, "Entry is not reconciled", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
	}
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListItems returns all inventory items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}
	writeJSON(w, http.StatusOK, itemDTOs(items))
}

// LowStock returns items at or below their reorder level.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListLowStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}
	writeJSON(w, http.StatusOK, itemDTOs(items))
}

// GetItem returns one inventory item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// CreateItem registers a new inventory item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item := itemFromRequest(uuid.NewString(), req)
	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// UpdateItem edits an item's details. Stock changes go through
// movements, not here.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}

	var req SaveItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item := itemFromRequest(id, req)
	item.Quantity = existing.Quantity
	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// RecordMovement applies a stock in/out event.
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	m := inventory.Movement{
		ID:       uuid.NewString(),
		ItemID:   req.ItemID,
		Type:     inventory.MovementType(req.Type),
		Quantity: req.Quantity,
		Remarks:  req.Remarks,
	}
	item, err := h.Store.ApplyMovement(r.Context(), m)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "Item not found", nil)
		case errors.Is(err, inventory.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, "Quantity must be positive", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to record movement", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

func itemFromRequest(id string, req SaveItemRequest) inventory.Item {
	category := inventory.Category(req.Category)
	if category == "" {
		category = inventory.CategoryOther
	}
	return inventory.Item{
		ID:           id,
		Name:         req.Name,
		Category:     category,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    decimal.NewFromFloat(req.UnitPrice),
	}
}

func itemDTOs(items []inventory.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// toDuesDTO flattens the engine's breakdown into ordered DTOs. The
// breakdown is keyed by display name; head IDs are back-filled from the
// snapshot's catalog.
func toDuesDTO(d fees.StudentDues, data fees.LiabilityData) StudentDuesDTO {
	idByName := make(map[string]string, len(data.Heads))
	for _, head := range data.Heads {
		idByName[head.DisplayName()] = head.ID
	}

	installments := make([]InstallmentDuesDTO, 0, len(d.Breakdown))
	for inst := 1; inst <= data.InstallmentCount; inst++ {
		byHead, ok := d.Breakdown[inst]
		if !ok {
			continue
		}
		heads := make([]HeadDuesDTO, 0, len(byHead))
		for _, head := range data.Heads {
			amounts, ok := byHead[head.DisplayName()]
			if !ok {
				continue
			}
			heads = append(heads, HeadDuesDTO{
				FeeHeadID: idByName[head.DisplayName()],
				Name:      head.DisplayName(),
				Due:       money(amounts.Due),
				Paid:      money(amounts.Paid),
				Pending:   money(amounts.Pending),
			})
		}
		installments = append(installments, InstallmentDuesDTO{
			Installment: inst,
			Heads:       heads,
		})
	}

	return StudentDuesDTO{
		ID:           d.ID,
		StudentID:    d.StudentID,
		Name:         d.Name,
		Class:        d.Class,
		TotalDue:     money(d.TotalDue),
		TotalPaid:    money(d.TotalPaid),
		TotalPending: money(d.PendingAmount),
		Installments: installments,
	}
}

// sessionStart derives the academic year's opening date from a session
// label like "2026-27" (April 1 of the starting year).
func sessionStart(session string) time.Time {
	if len(session) >= 4 {
		if year, err := strconv.Atoi(session[:4]); err == nil {
			return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Now().UTC()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
