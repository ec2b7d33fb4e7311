/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts cross the wire as JSON numbers and are converted to
  shopspring decimals at the handler boundary. Responses round to two
  places; engine math stays exact until serialization.

VALIDATION:
  Request types carry go-playground/validator struct tags. Handlers run
  the shared validator before touching the store.

SEE ALSO:
  - handlers.go: Uses these types
  - fees/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/inventory"
	"github.com/vidya/school-erp/recon"
	"github.com/vidya/school-erp/students"
)

// =============================================================================
// STUDENT TYPES
// =============================================================================

// StudentDTO represents a student in API responses.
type StudentDTO struct {
	ID                 string `json:"id"`
	StudentID          string `json:"student_id"`
	Name               string `json:"name"`
	Class              string `json:"class"`
	Status             string `json:"status"`
	HasTransport       bool   `json:"has_transport"`
	TransportFeeHeadID string `json:"transport_fee_head_id,omitempty"`
	ContactNumber      string `json:"contact_number,omitempty"`
	Address            string `json:"address,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// CreateStudentRequest is the request to create a student.
type CreateStudentRequest struct {
	StudentID          string `json:"student_id" validate:"required"`
	Name               string `json:"name" validate:"required"`
	Class              string `json:"class" validate:"required"`
	HasTransport       bool   `json:"has_transport"`
	TransportFeeHeadID string `json:"transport_fee_head_id,omitempty"`
	ContactNumber      string `json:"contact_number,omitempty"`
	Address            string `json:"address,omitempty"`
}

// UpdateStudentRequest is the request to update a student. Status
// transitions to TC go through the transfer gate.
type UpdateStudentRequest struct {
	Name               string `json:"name" validate:"required"`
	Class              string `json:"class" validate:"required"`
	Status             string `json:"status" validate:"omitempty,oneof=ACTIVE TC"`
	HasTransport       bool   `json:"has_transport"`
	TransportFeeHeadID string `json:"transport_fee_head_id,omitempty"`
	ContactNumber      string `json:"contact_number,omitempty"`
	Address            string `json:"address,omitempty"`
}

// BulkImportRequest carries parsed spreadsheet rows in fixed column
// order: student_id, name, class, contact, transport flag, transport
// head name.
type BulkImportRequest struct {
	Rows [][]string `json:"rows" validate:"required,min=1"`
}

// ImportResultDTO summarizes a bulk import run.
type ImportResultDTO struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// =============================================================================
// FEE CATALOG TYPES
// =============================================================================

// FeeHeadDTO represents a fee head with its per-class schedule.
type FeeHeadDTO struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	DisplayName     string             `json:"display_name"`
	Description     string             `json:"description,omitempty"`
	Session         string             `json:"session"`
	Frequency       string             `json:"frequency"`
	DueDay          int                `json:"due_day,omitempty"`
	DueMonths       string             `json:"due_months,omitempty"`
	LateFeeAmount   float64            `json:"late_fee_amount"`
	GracePeriodDays int                `json:"grace_period_days,omitempty"`
	IsTransportFee  bool               `json:"is_transport_fee"`
	Amounts         map[string]float64 `json:"amounts"`
}

// SaveFeeHeadRequest creates or updates a fee head.
type SaveFeeHeadRequest struct {
	Name            string             `json:"name" validate:"required"`
	Description     string             `json:"description,omitempty"`
	Session         string             `json:"session" validate:"required"`
	Frequency       string             `json:"frequency" validate:"omitempty,oneof=ONCE INSTALLMENTS"`
	DueDay          int                `json:"due_day,omitempty"`
	DueMonths       string             `json:"due_months,omitempty"`
	LateFeeAmount   float64            `json:"late_fee_amount" validate:"gte=0"`
	GracePeriodDays int                `json:"grace_period_days,omitempty" validate:"gte=0"`
	IsTransportFee  bool               `json:"is_transport_fee"`
	Amounts         map[string]float64 `json:"amounts" validate:"required,min=1"`
}

// GlobalSettingDTO represents the per-session fee settings.
type GlobalSettingDTO struct {
	Session          string  `json:"session"`
	InstallmentCount int     `json:"installment_count"`
	DueMonths        string  `json:"due_months,omitempty"`
	DueDay           int     `json:"due_day,omitempty"`
	LateFeeAmount    float64 `json:"late_fee_amount"`
	LateFeeStartDay  int     `json:"late_fee_start_day,omitempty"`
	LateFeeFrequency string  `json:"late_fee_frequency,omitempty"`
}

// SaveGlobalSettingRequest creates or updates a session's settings.
type SaveGlobalSettingRequest struct {
	Session          string  `json:"session" validate:"required"`
	InstallmentCount int     `json:"installment_count" validate:"required,min=1,max=12"`
	DueMonths        string  `json:"due_months,omitempty"`
	DueDay           int     `json:"due_day,omitempty" validate:"omitempty,min=1,max=28"`
	LateFeeAmount    float64 `json:"late_fee_amount" validate:"gte=0"`
	LateFeeStartDay  int     `json:"late_fee_start_day,omitempty"`
	LateFeeFrequency string  `json:"late_fee_frequency,omitempty" validate:"omitempty,oneof=ONCE PER_DAY"`
}

// =============================================================================
// ENROLLMENT TYPES
// =============================================================================

// EnrollmentDTO represents one opt-out record.
type EnrollmentDTO struct {
	ID                string `json:"id"`
	StudentID         string `json:"student_id"`
	FeeHeadID         string `json:"fee_head_id"`
	Session           string `json:"session"`
	InstallmentNumber int    `json:"installment_number"`
	IsEnrolled        bool   `json:"is_enrolled"`
}

// SetEnrollmentRequest toggles one liability slot on or off.
type SetEnrollmentRequest struct {
	StudentID         string `json:"student_id" validate:"required"`
	FeeHeadID         string `json:"fee_head_id" validate:"required"`
	Session           string `json:"session,omitempty"`
	InstallmentNumber int    `json:"installment_number" validate:"required,min=1"`
	IsEnrolled        *bool  `json:"is_enrolled" validate:"required"`
}

// =============================================================================
// DUES TYPES
// =============================================================================

// HeadDuesDTO is the per-head slice of one installment's dues.
type HeadDuesDTO struct {
	FeeHeadID string  `json:"fee_head_id"`
	Name      string  `json:"name"`
	Due       float64 `json:"due"`
	Paid      float64 `json:"paid"`
	Pending   float64 `json:"pending"`
}

// InstallmentDuesDTO groups head dues under one installment number.
type InstallmentDuesDTO struct {
	Installment int           `json:"installment"`
	Heads       []HeadDuesDTO `json:"heads"`
}

// StudentDuesDTO is one student's full liability picture.
type StudentDuesDTO struct {
	ID           string               `json:"id"`
	StudentID    string               `json:"student_id"`
	Name         string               `json:"name"`
	Class        string               `json:"class"`
	TotalDue     float64              `json:"total_due"`
	TotalPaid    float64              `json:"total_paid"`
	TotalPending float64              `json:"total_pending"`
	Installments []InstallmentDuesDTO `json:"installments"`
}

// StatsDTO is the session-wide collection summary.
type StatsDTO struct {
	Session        string  `json:"session"`
	TotalStudents  int     `json:"total_students"`
	ActiveStudents int     `json:"active_students"`
	TCStudents     int     `json:"tc_students"`
	TotalExpected  float64 `json:"total_expected"`
	TotalCollected float64 `json:"total_collected"`
	TotalPending   float64 `json:"total_pending"`
}

// LedgerEntryDTO is one row of a student's debit/credit ledger.
type LedgerEntryDTO struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// ReceiptLineRequest is one payment line within a receipt.
type ReceiptLineRequest struct {
	FeeHeadID         string  `json:"fee_head_id" validate:"required"`
	InstallmentNumber int     `json:"installment_number" validate:"required,min=1"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Remarks           string  `json:"remarks,omitempty"`
}

// CreateReceiptRequest records a payment against one or more slots.
type CreateReceiptRequest struct {
	StudentID   string               `json:"student_id" validate:"required"`
	PaymentMode string               `json:"payment_mode" validate:"required,oneof=CASH ONLINE"`
	PaymentDate string               `json:"payment_date,omitempty"`
	Remarks     string               `json:"remarks,omitempty"`
	Lines       []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateReceiptRequest corrects line amounts on an existing receipt.
// Keys are transaction IDs.
type UpdateReceiptRequest struct {
	Amounts map[string]float64 `json:"amounts" validate:"required,min=1"`
}

// TransactionDTO represents a payment line in responses.
type TransactionDTO struct {
	ID                string  `json:"id"`
	StudentID         string  `json:"student_id"`
	FeeHeadID         string  `json:"fee_head_id"`
	FeeHeadName       string  `json:"fee_head_name,omitempty"`
	ReceiptID         string  `json:"receipt_id,omitempty"`
	AmountPaid        float64 `json:"amount_paid"`
	InstallmentNumber int     `json:"installment_number"`
	PaymentDate       string  `json:"payment_date"`
	Remarks           string  `json:"remarks,omitempty"`
}

// ReceiptDTO represents a receipt with its line items.
type ReceiptDTO struct {
	ID          string           `json:"id"`
	ReceiptNo   int64            `json:"receipt_no"`
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	TotalAmount float64          `json:"total_amount"`
	PaymentMode string           `json:"payment_mode"`
	Remarks     string           `json:"remarks,omitempty"`
	PaymentDate string           `json:"payment_date"`
	Lines       []TransactionDTO `json:"lines,omitempty"`
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// BankEntryDTO represents one imported statement line.
type BankEntryDTO struct {
	ID                   string  `json:"id"`
	Date                 string  `json:"date"`
	Description          string  `json:"description,omitempty"`
	Amount               float64 `json:"amount"`
	RefNumber            string  `json:"ref_number,omitempty"`
	IsReconciled         bool    `json:"is_reconciled"`
	MatchedTransactionID string  `json:"matched_transaction_id,omitempty"`
}

// StatementImportResultDTO summarizes a statement upload.
type StatementImportResultDTO struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// AutoMatchResultDTO reports an auto-match run.
type AutoMatchResultDTO struct {
	Matched   int `json:"matched"`
	Remaining int `json:"remaining"`
}

// ReconcileRequest links a statement entry to a payment. An empty
// transaction_id marks the entry reconciled without linkage.
type ReconcileRequest struct {
	TransactionID string `json:"transaction_id,omitempty"`
}

// ManualEntryRequest adds a statement line by hand.
type ManualEntryRequest struct {
	Date        string  `json:"date" validate:"required"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" validate:"required"`
	RefNumber   string  `json:"ref_number,omitempty"`
}

// CandidateDTO is one online payment available for matching.
type CandidateDTO struct {
	TransactionID string  `json:"transaction_id"`
	StudentName   string  `json:"student_name"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
}

// =============================================================================
// INVENTORY TYPES
// =============================================================================

// ItemDTO represents an inventory item.
type ItemDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     int     `json:"quantity"`
	ReorderLevel int     `json:"reorder_level"`
	UnitPrice    float64 `json:"unit_price,omitempty"`
	LowStock     bool    `json:"low_stock"`
}

// SaveItemRequest creates or updates an item.
type SaveItemRequest struct {
	Name         string  `json:"name" validate:"required"`
	Category     string  `json:"category" validate:"omitempty,oneof=STATIONERY FURNITURE ELECTRONICS OTHER"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	ReorderLevel int     `json:"reorder_level" validate:"gte=0"`
	UnitPrice    float64 `json:"unit_price,omitempty" validate:"gte=0"`
}

// MovementRequest records a stock in/out event.
type MovementRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=IN OUT"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Remarks  string `json:"remarks,omitempty"`
}

// =============================================================================
// COMMON TYPES
// =============================================================================

// ErrorResponse is the standard error format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toStudentDTO(st students.Student) StudentDTO {
	return StudentDTO{
		ID:                 st.ID,
		StudentID:          st.StudentID,
		Name:               st.Name,
		Class:              st.Class,
		Status:             string(st.Status),
		HasTransport:       st.HasTransport,
		TransportFeeHeadID: st.TransportFeeHeadID,
		ContactNumber:      st.ContactNumber,
		Address:            st.Address,
		CreatedAt:          st.CreatedAt.Format(time.RFC3339),
	}
}

func toFeeHeadDTO(h fees.FeeHead) FeeHeadDTO {
	amounts := make(map[string]float64, len(h.Amounts))
	for class, amt := range h.Amounts {
		amounts[class] = money(amt)
	}
	return FeeHeadDTO{
		ID:              h.ID,
		Name:            h.Name,
		DisplayName:     h.DisplayName(),
		Description:     h.Description,
		Session:         h.Session,
		Frequency:       string(h.Frequency),
		DueDay:          h.DueDay,
		DueMonths:       h.DueMonths,
		LateFeeAmount:   money(h.LateFeeAmount),
		GracePeriodDays: h.GracePeriodDays,
		IsTransportFee:  h.IsTransportFee,
		Amounts:         amounts,
	}
}

func toTransactionDTO(tx fees.FeeTransaction, headName string) TransactionDTO {
	return TransactionDTO{
		ID:                tx.ID,
		StudentID:         tx.StudentID,
		FeeHeadID:         tx.FeeHeadID,
		FeeHeadName:       headName,
		ReceiptID:         tx.ReceiptID,
		AmountPaid:        money(tx.AmountPaid),
		InstallmentNumber: tx.InstallmentNumber,
		PaymentDate:       tx.PaymentDate.Format("2006-01-02"),
		Remarks:           tx.Remarks,
	}
}

func toReceiptDTO(r fees.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:          r.ID,
		ReceiptNo:   r.ReceiptNo,
		StudentID:   r.StudentID,
		TotalAmount: money(r.TotalAmount),
		PaymentMode: string(r.PaymentMode),
		Remarks:     r.Remarks,
		PaymentDate: r.PaymentDate.Format("2006-01-02"),
	}
}

func toBankEntryDTO(e recon.Entry) BankEntryDTO {
	return BankEntryDTO{
		ID:                   e.ID,
		Date:                 e.Date.Format("2006-01-02"),
		Description:          e.Description,
		Amount:               money(e.Amount),
		RefNumber:            e.RefNumber,
		IsReconciled:         e.IsReconciled,
		MatchedTransactionID: e.MatchedTransactionID,
	}
}

func toItemDTO(item inventory.Item) ItemDTO {
	return ItemDTO{
		ID:           item.ID,
		Name:         item.Name,
		Category:     string(item.Category),
		Quantity:     item.Quantity,
		ReorderLevel: item.ReorderLevel,
		UnitPrice:    money(item.UnitPrice),
		LowStock:     item.Quantity <= item.ReorderLevel,
	}
}

// money rounds a decimal to two places for JSON serialization.
func money(d decimal.Decimal) float64 {
	f, _ := fees.Round2(d).Float64()
	return f
}
