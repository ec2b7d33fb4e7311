// Package store provides an in-memory fee store implementation.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/students"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements fees.Store and students.Store without a database.
// Mirrors the semantics of store/sqlite closely enough that engine and
// loader tests run against it interchangeably.
type Memory struct {
	mu          sync.RWMutex
	heads       map[string]fees.FeeHead
	settings    map[string]fees.GlobalFeeSetting
	sessions    []string // insertion order; last is "latest"
	enrollments map[enrollKey]fees.StudentFeeEnrollment
	txs         map[string]fees.FeeTransaction
	receipts    map[string]fees.Receipt
	students    map[string]students.Student
	nextReceipt int64
}

type enrollKey struct {
	StudentID   string
	FeeHeadID   string
	Session     string
	Installment int
}

func NewMemory() *Memory {
	return &Memory{
		heads:       make(map[string]fees.FeeHead),
		settings:    make(map[string]fees.GlobalFeeSetting),
		enrollments: make(map[enrollKey]fees.StudentFeeEnrollment),
		txs:         make(map[string]fees.FeeTransaction),
		receipts:    make(map[string]fees.Receipt),
		students:    make(map[string]students.Student),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) SaveFeeHead(_ context.Context, head fees.FeeHead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if head.Amounts == nil {
		head.Amounts = make(map[string]decimal.Decimal)
	}
	m.heads[head.ID] = head
	return nil
}

func (m *Memory) GetFeeHead(_ context.Context, id string) (*fees.FeeHead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if head, ok := m.heads[id]; ok {
		return &head, nil
	}
	return nil, nil
}

func (m *Memory) ListFeeHeads(_ context.Context, session string) ([]fees.FeeHead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var heads []fees.FeeHead
	for _, h := range m.heads {
		if session == "" || h.Session == session {
			heads = append(heads, h)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].Name < heads[j].Name })
	return heads, nil
}

func (m *Memory) FindTransportHead(_ context.Context, name string) (*fees.FeeHead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.heads {
		if h.IsTransportFee && strings.EqualFold(h.Name, name) {
			head := h
			return &head, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeleteFeeHead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.heads, id)
	return nil
}

func (m *Memory) SaveGlobalSetting(_ context.Context, setting fees.GlobalFeeSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings[setting.Session]; !ok {
		m.sessions = append(m.sessions, setting.Session)
	}
	m.settings[setting.Session] = setting
	return nil
}

func (m *Memory) GetGlobalSetting(_ context.Context, session string) (*fees.GlobalFeeSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settings[session]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) LatestSession(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.sessions) == 0 {
		return "", nil
	}
	return m.sessions[len(m.sessions)-1], nil
}

// =============================================================================
// ENROLLMENT
// =============================================================================

func (m *Memory) SetEnrollment(_ context.Context, e fees.StudentFeeEnrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := enrollKey{e.StudentID, e.FeeHeadID, e.Session, e.InstallmentNumber}
	if existing, ok := m.enrollments[k]; ok {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
	}
	m.enrollments[k] = e
	return nil
}

func (m *Memory) ListEnrollments(_ context.Context, studentID, session string) ([]fees.StudentFeeEnrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []fees.StudentFeeEnrollment
	for k, e := range m.enrollments {
		if k.Session != session {
			continue
		}
		if studentID != "" && k.StudentID != studentID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FeeHeadID != out[j].FeeHeadID {
			return out[i].FeeHeadID < out[j].FeeHeadID
		}
		return out[i].InstallmentNumber < out[j].InstallmentNumber
	})
	return out, nil
}

func (m *Memory) LoadEnrollmentSet(_ context.Context, session string) (fees.EnrollmentSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := make(fees.EnrollmentSet)
	for k, e := range m.enrollments {
		if k.Session != session {
			continue
		}
		set[fees.SlotKey{
			StudentID:         k.StudentID,
			FeeHeadID:         k.FeeHeadID,
			InstallmentNumber: k.Installment,
		}] = e.IsEnrolled
	}
	return set, nil
}

// =============================================================================
// TRANSACTIONS AND RECEIPTS
// =============================================================================

func (m *Memory) ListTransactions(_ context.Context, studentID string) ([]fees.FeeTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []fees.FeeTransaction
	for _, tx := range m.txs {
		if studentID == "" || tx.StudentID == studentID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (m *Memory) GetTransaction(_ context.Context, id string) (*fees.FeeTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.txs[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (m *Memory) LoadPaymentIndex(_ context.Context, session string) (fees.PaymentIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := make(fees.PaymentIndex)
	for _, tx := range m.txs {
		head, ok := m.heads[tx.FeeHeadID]
		if !ok || head.Session != session {
			continue
		}
		idx.Add(tx.StudentID, tx.FeeHeadID, tx.InstallmentNumber, tx.AmountPaid)
	}
	return idx, nil
}

func (m *Memory) ListSessionTransactions(_ context.Context, session string) ([]fees.TransactionFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var facts []fees.TransactionFact
	for _, tx := range m.txs {
		head, ok := m.heads[tx.FeeHeadID]
		if !ok || head.Session != session {
			continue
		}
		fact := fees.TransactionFact{
			TransactionID:     tx.ID,
			StudentID:         tx.StudentID,
			FeeHeadID:         tx.FeeHeadID,
			InstallmentNumber: tx.InstallmentNumber,
			Amount:            tx.AmountPaid,
			PaymentDate:       tx.PaymentDate,
		}
		if st, ok := m.students[tx.StudentID]; ok {
			fact.Class = st.Class
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

func (m *Memory) CreateReceipt(_ context.Context, r fees.Receipt, lines []fees.FeeTransaction) (*fees.Receipt, error) {
	if len(lines) == 0 {
		return nil, fees.ErrEmptyReceipt
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextReceipt++
	r.ReceiptNo = m.nextReceipt
	total := decimal.Zero
	for i := range lines {
		lines[i].ReceiptID = r.ID
		total = total.Add(lines[i].AmountPaid)
	}
	r.TotalAmount = total

	m.receipts[r.ID] = r
	for _, line := range lines {
		m.txs[line.ID] = line
	}
	return &r, nil
}

func (m *Memory) GetReceipt(_ context.Context, id string) (*fees.Receipt, []fees.FeeTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.receipts[id]
	if !ok {
		return nil, nil, nil
	}
	var lines []fees.FeeTransaction
	for _, tx := range m.txs {
		if tx.ReceiptID == id {
			lines = append(lines, tx)
		}
	}
	return &r, lines, nil
}

func (m *Memory) ListReceipts(_ context.Context, studentID string) ([]fees.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []fees.Receipt
	for _, r := range m.receipts {
		if studentID == "" || r.StudentID == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiptNo > out[j].ReceiptNo })
	return out, nil
}

func (m *Memory) UpdateReceiptLines(_ context.Context, receiptID string, amounts map[string]decimal.Decimal) (*fees.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[receiptID]
	if !ok {
		return nil, fees.ErrReceiptNotFound
	}

	for id, amount := range amounts {
		tx, ok := m.txs[id]
		if !ok || tx.ReceiptID != receiptID {
			return nil, fees.ErrTransactionNotFound
		}
		tx.AmountPaid = amount
		m.txs[id] = tx
	}

	// Recompute the total from persisted lines, not from the request.
	total := decimal.Zero
	for _, tx := range m.txs {
		if tx.ReceiptID == receiptID {
			total = total.Add(tx.AmountPaid)
		}
	}
	r.TotalAmount = total
	m.receipts[receiptID] = r
	return &r, nil
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Memory) SaveStudent(_ context.Context, s students.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id string) (*students.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) GetStudentByExternalID(_ context.Context, studentID string) (*students.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.StudentID == studentID {
			st := s
			return &st, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListStudents(_ context.Context, class string) ([]students.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []students.Student
	for _, s := range m.students {
		if class == "" || s.Class == class {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
