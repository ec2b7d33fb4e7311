/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (fees.Store, students.Store,
  recon.Store, inventory.Store) using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  students:               Enrollment records
  fee_heads, fee_amounts: Fee catalog with per-class schedules
  global_fee_settings:    Per-session installment policy
  fee_enrollments:        Per-installment opt-out records
  receipts:               Sequential receipt numbers
  fee_transactions:       Immutable payment events
  bank_statement_entries: Imported statement lines + reconciliation state
  inventory_items, inventory_movements

RECEIPT NUMBERING:
  CreateReceipt reads MAX(receipt_no)+1 and inserts the receipt plus all
  line items inside one transaction, under the store's write lock.
  Concurrent creations can never allocate the same number, and partial
  receipts never exist.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - fees/store.go, students/types.go, recon/types.go, inventory/inventory.go:
    Interface definitions
  - fees/store/memory.go: In-memory counterpart for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/inventory"
	"github.com/vidya/school-erp/recon"
	"github.com/vidya/school-erp/students"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent across the
	// pool; the store mutex already serializes access.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Students
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		class TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		has_transport BOOLEAN NOT NULL DEFAULT FALSE,
		transport_fee_head_id TEXT,
		contact_number TEXT,
		address TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_class ON students(class);
	CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);

	-- Fee catalog
	CREATE TABLE IF NOT EXISTS fee_heads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		session TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT 'INSTALLMENTS',
		due_day INTEGER DEFAULT 10,
		due_months TEXT,
		late_fee_amount TEXT NOT NULL DEFAULT '0',
		grace_period_days INTEGER DEFAULT 0,
		is_transport_fee BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		UNIQUE(name, session)
	);

	CREATE INDEX IF NOT EXISTS idx_fee_heads_session ON fee_heads(session);

	-- One amount per class per head
	CREATE TABLE IF NOT EXISTS fee_amounts (
		fee_head_id TEXT NOT NULL REFERENCES fee_heads(id) ON DELETE CASCADE,
		class_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(fee_head_id, class_name)
	);

	-- Per-session installment policy
	CREATE TABLE IF NOT EXISTS global_fee_settings (
		session TEXT PRIMARY KEY,
		installment_count INTEGER NOT NULL DEFAULT 1,
		due_months TEXT,
		due_day INTEGER DEFAULT 10,
		late_fee_amount TEXT NOT NULL DEFAULT '0',
		late_fee_start_day INTEGER DEFAULT 15,
		late_fee_frequency TEXT NOT NULL DEFAULT 'ONCE',
		created_at TEXT NOT NULL
	);

	-- Opt-out enrollment records (absence = enrolled)
	CREATE TABLE IF NOT EXISTS fee_enrollments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		fee_head_id TEXT NOT NULL,
		session TEXT NOT NULL,
		installment_number INTEGER NOT NULL,
		is_enrolled BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(student_id, fee_head_id, session, installment_number)
	);

	CREATE INDEX IF NOT EXISTS idx_fee_enrollments_session
		ON fee_enrollments(session);
	CREATE INDEX IF NOT EXISTS idx_fee_enrollments_student
		ON fee_enrollments(student_id, session);

	-- Receipts (strictly increasing receipt_no)
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		receipt_no INTEGER NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		payment_mode TEXT NOT NULL DEFAULT 'CASH',
		remarks TEXT,
		payment_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_student ON receipts(student_id);

	-- Payment events (immutable apart from receipt line updates)
	CREATE TABLE IF NOT EXISTS fee_transactions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		fee_head_id TEXT NOT NULL,
		receipt_id TEXT,
		amount_paid TEXT NOT NULL,
		installment_number INTEGER NOT NULL DEFAULT 1,
		payment_date TEXT NOT NULL,
		remarks TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: per-slot payment sums for the liability engine
	CREATE INDEX IF NOT EXISTS idx_fee_transactions_slot
		ON fee_transactions(student_id, fee_head_id, installment_number);
	CREATE INDEX IF NOT EXISTS idx_fee_transactions_receipt
		ON fee_transactions(receipt_id) WHERE receipt_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_fee_transactions_date
		ON fee_transactions(payment_date);

	-- Imported bank statement lines
	CREATE TABLE IF NOT EXISTS bank_statement_entries (
		id TEXT PRIMARY KEY,
		entry_date TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		ref_number TEXT,
		is_reconciled BOOLEAN NOT NULL DEFAULT FALSE,
		matched_transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bank_entries_reconciled
		ON bank_statement_entries(is_reconciled);
	CREATE INDEX IF NOT EXISTS idx_bank_entries_matched
		ON bank_statement_entries(matched_transaction_id)
		WHERE matched_transaction_id IS NOT NULL;

	-- Inventory
	CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'OTHER',
		quantity INTEGER NOT NULL DEFAULT 0,
		reorder_level INTEGER NOT NULL DEFAULT 10,
		unit_price TEXT
	);

	CREATE TABLE IF NOT EXISTS inventory_movements (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
		movement_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		moved_at TEXT NOT NULL,
		remarks TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_inventory_movements_item
		ON inventory_movements(item_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STUDENT STORE (students.Store interface)
// =============================================================================

// SaveStudent inserts or updates a student by storage ID.
func (s *Store) SaveStudent(ctx context.Context, st students.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO students
		(id, student_id, name, class, status, has_transport, transport_fee_head_id,
		 contact_number, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			student_id = excluded.student_id,
			name = excluded.name,
			class = excluded.class,
			status = excluded.status,
			has_transport = excluded.has_transport,
			transport_fee_head_id = excluded.transport_fee_head_id,
			contact_number = excluded.contact_number,
			address = excluded.address,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !st.CreatedAt.IsZero() {
		createdAt = st.CreatedAt.UTC().Format(time.RFC3339)
	}
	status := st.Status
	if status == "" {
		status = students.StatusActive
	}

	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.StudentID, st.Name, st.Class, string(status),
		st.HasTransport, nullString(st.TransportFeeHeadID),
		st.ContactNumber, st.Address, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by storage ID.
func (s *Store) GetStudent(ctx context.Context, id string) (*students.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStudent(ctx, "WHERE id = ?", id)
}

// GetStudentByExternalID retrieves a student by admission-register ID.
func (s *Store) GetStudentByExternalID(ctx context.Context, studentID string) (*students.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStudent(ctx, "WHERE student_id = ?", studentID)
}

func (s *Store) queryStudent(ctx context.Context, where string, args ...any) (*students.Student, error) {
	query := `
		SELECT id, student_id, name, class, status, has_transport,
		       transport_fee_head_id, contact_number, address, created_at, updated_at
		FROM students ` + where

	row := s.db.QueryRowContext(ctx, query, args...)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStudents returns students, optionally filtered by class.
func (s *Store) ListStudents(ctx context.Context, class string) ([]students.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, student_id, name, class, status, has_transport,
		       transport_fee_head_id, contact_number, address, created_at, updated_at
		FROM students
	`
	var args []any
	if class != "" {
		query += " WHERE class = ?"
		args = append(args, class)
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var result []students.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (students.Student, error) {
	var (
		st                   students.Student
		transportHead        sql.NullString
		contact, address     sql.NullString
		createdAt, updatedAt string
		status               string
	)

	err := row.Scan(&st.ID, &st.StudentID, &st.Name, &st.Class, &status,
		&st.HasTransport, &transportHead, &contact, &address, &createdAt, &updatedAt)
	if err != nil {
		return st, err
	}

	st.Status = students.Status(status)
	st.TransportFeeHeadID = transportHead.String
	st.ContactNumber = contact.String
	st.Address = address.String
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return st, nil
}

// =============================================================================
// CATALOG STORE (fees.CatalogStore interface)
// =============================================================================

// SaveFeeHead inserts or updates a head and replaces its amount schedule.
func (s *Store) SaveFeeHead(ctx context.Context, head fees.FeeHead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO fee_heads
		(id, name, description, session, frequency, due_day, due_months,
		 late_fee_amount, grace_period_days, is_transport_fee, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			session = excluded.session,
			frequency = excluded.frequency,
			due_day = excluded.due_day,
			due_months = excluded.due_months,
			late_fee_amount = excluded.late_fee_amount,
			grace_period_days = excluded.grace_period_days,
			is_transport_fee = excluded.is_transport_fee
	`

	_, err = tx.ExecContext(ctx, query,
		head.ID, head.Name, head.Description, head.Session, string(head.Frequency),
		head.DueDay, head.DueMonths, head.LateFeeAmount.String(),
		head.GracePeriodDays, head.IsTransportFee,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fees.ErrDuplicateFeeHead
		}
		return fmt.Errorf("failed to save fee head: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM fee_amounts WHERE fee_head_id = ?", head.ID); err != nil {
		return fmt.Errorf("failed to clear amounts: %w", err)
	}
	for class, amount := range head.Amounts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO fee_amounts (fee_head_id, class_name, amount) VALUES (?, ?, ?)",
			head.ID, class, amount.String())
		if err != nil {
			return fmt.Errorf("failed to save amount for class %s: %w", class, err)
		}
	}

	return tx.Commit()
}

// GetFeeHead retrieves a head with its amounts.
func (s *Store) GetFeeHead(ctx context.Context, id string) (*fees.FeeHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	heads, err := s.queryFeeHeads(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return nil, nil
	}
	return &heads[0], nil
}

// ListFeeHeads returns heads with their amount schedules for a session.
// An empty session returns all heads.
func (s *Store) ListFeeHeads(ctx context.Context, session string) ([]fees.FeeHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session == "" {
		return s.queryFeeHeads(ctx, "")
	}
	return s.queryFeeHeads(ctx, "WHERE session = ?", session)
}

// FindTransportHead returns the transport head with the given name,
// matched case-insensitively.
func (s *Store) FindTransportHead(ctx context.Context, name string) (*fees.FeeHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	heads, err := s.queryFeeHeads(ctx,
		"WHERE is_transport_fee = TRUE AND name = ? COLLATE NOCASE", name)
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return nil, nil
	}
	return &heads[0], nil
}

func (s *Store) queryFeeHeads(ctx context.Context, where string, args ...any) ([]fees.FeeHead, error) {
	query := `
		SELECT id, name, description, session, frequency, due_day, due_months,
		       late_fee_amount, grace_period_days, is_transport_fee, created_at
		FROM fee_heads ` + where + ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee heads: %w", err)
	}
	defer rows.Close()

	var heads []fees.FeeHead
	byID := make(map[string]int)
	for rows.Next() {
		var (
			h                   fees.FeeHead
			description, months sql.NullString
			lateFee, createdAt  string
			frequency           string
		)
		if err := rows.Scan(&h.ID, &h.Name, &description, &h.Session, &frequency,
			&h.DueDay, &months, &lateFee, &h.GracePeriodDays, &h.IsTransportFee, &createdAt); err != nil {
			return nil, err
		}
		h.Description = description.String
		h.DueMonths = months.String
		h.Frequency = fees.Frequency(frequency)
		h.LateFeeAmount = mustDecimal(lateFee)
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		h.Amounts = make(map[string]decimal.Decimal)
		byID[h.ID] = len(heads)
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return heads, nil
	}

	// One query for every head's schedule; the engine must never see a
	// head without its amounts.
	placeholders := make([]string, 0, len(heads))
	ids := make([]any, 0, len(heads))
	for _, h := range heads {
		placeholders = append(placeholders, "?")
		ids = append(ids, h.ID)
	}
	amtRows, err := s.db.QueryContext(ctx,
		"SELECT fee_head_id, class_name, amount FROM fee_amounts WHERE fee_head_id IN ("+
			strings.Join(placeholders, ",")+")", ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee amounts: %w", err)
	}
	defer amtRows.Close()

	for amtRows.Next() {
		var headID, class, amount string
		if err := amtRows.Scan(&headID, &class, &amount); err != nil {
			return nil, err
		}
		if i, ok := byID[headID]; ok {
			heads[i].Amounts[class] = mustDecimal(amount)
		}
	}
	return heads, amtRows.Err()
}

// DeleteFeeHead removes a head; fee_amounts cascade.
func (s *Store) DeleteFeeHead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM fee_heads WHERE id = ?", id)
	return err
}

// SaveGlobalSetting upserts the per-session setting row.
func (s *Store) SaveGlobalSetting(ctx context.Context, setting fees.GlobalFeeSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO global_fee_settings
		(session, installment_count, due_months, due_day, late_fee_amount,
		 late_fee_start_day, late_fee_frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET
			installment_count = excluded.installment_count,
			due_months = excluded.due_months,
			due_day = excluded.due_day,
			late_fee_amount = excluded.late_fee_amount,
			late_fee_start_day = excluded.late_fee_start_day,
			late_fee_frequency = excluded.late_fee_frequency
	`

	_, err := s.db.ExecContext(ctx, query,
		setting.Session, setting.InstallmentCount, setting.DueMonths, setting.DueDay,
		setting.LateFeeAmount.String(), setting.LateFeeStartDay, string(setting.LateFeeFrequency),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetGlobalSetting returns the setting for a session, or nil when absent.
func (s *Store) GetGlobalSetting(ctx context.Context, session string) (*fees.GlobalFeeSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		setting          fees.GlobalFeeSetting
		months           sql.NullString
		lateFee, lateFrq string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session, installment_count, due_months, due_day, late_fee_amount,
		        late_fee_start_day, late_fee_frequency
		 FROM global_fee_settings WHERE session = ?`, session,
	).Scan(&setting.Session, &setting.InstallmentCount, &months, &setting.DueDay,
		&lateFee, &setting.LateFeeStartDay, &lateFrq)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	setting.DueMonths = months.String
	setting.LateFeeAmount = mustDecimal(lateFee)
	setting.LateFeeFrequency = fees.LateFeeFrequency(lateFrq)
	return &setting, nil
}

// LatestSession returns the most recently configured session label, or
// "" when no settings exist yet.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var session string
	err := s.db.QueryRowContext(ctx,
		"SELECT session FROM global_fee_settings ORDER BY created_at DESC, session DESC LIMIT 1",
	).Scan(&session)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return session, err
}

// =============================================================================
// ENROLLMENT STORE (fees.EnrollmentStore interface)
// =============================================================================

// SetEnrollment upserts by (student, head, session, installment).
func (s *Store) SetEnrollment(ctx context.Context, e fees.StudentFeeEnrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query := `
		INSERT INTO fee_enrollments
		(id, student_id, fee_head_id, session, installment_number, is_enrolled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, fee_head_id, session, installment_number) DO UPDATE SET
			is_enrolled = excluded.is_enrolled,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.StudentID, e.FeeHeadID, e.Session, e.InstallmentNumber,
		e.IsEnrolled, now, now,
	)
	return err
}

// ListEnrollments returns opt-out records for a student in a session.
// An empty studentID returns the whole session.
func (s *Store) ListEnrollments(ctx context.Context, studentID, session string) ([]fees.StudentFeeEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, student_id, fee_head_id, session, installment_number,
		       is_enrolled, created_at, updated_at
		FROM fee_enrollments
		WHERE session = ?
	`
	args := []any{session}
	if studentID != "" {
		query += " AND student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY fee_head_id, installment_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var result []fees.StudentFeeEnrollment
	for rows.Next() {
		var (
			e                    fees.StudentFeeEnrollment
			createdAt, updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.StudentID, &e.FeeHeadID, &e.Session,
			&e.InstallmentNumber, &e.IsEnrolled, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		result = append(result, e)
	}
	return result, rows.Err()
}

// LoadEnrollmentSet bulk-loads the session's opt-out index.
func (s *Store) LoadEnrollmentSet(ctx context.Context, session string) (fees.EnrollmentSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, fee_head_id, installment_number, is_enrolled
		 FROM fee_enrollments WHERE session = ?`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment set: %w", err)
	}
	defer rows.Close()

	set := make(fees.EnrollmentSet)
	for rows.Next() {
		var k fees.SlotKey
		var enrolled bool
		if err := rows.Scan(&k.StudentID, &k.FeeHeadID, &k.InstallmentNumber, &enrolled); err != nil {
			return nil, err
		}
		set[k] = enrolled
	}
	return set, rows.Err()
}

// =============================================================================
// TRANSACTION STORE (fees.TransactionStore interface)
// =============================================================================

// ListTransactions returns payments, oldest first. An empty studentID
// returns all payments.
func (s *Store) ListTransactions(ctx context.Context, studentID string) ([]fees.FeeTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, student_id, fee_head_id, receipt_id, amount_paid,
		       installment_number, payment_date, remarks, created_at
		FROM fee_transactions
	`
	var args []any
	if studentID != "" {
		query += " WHERE student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY payment_date ASC, created_at ASC"

	return s.queryTransactions(ctx, query, args...)
}

// GetTransaction returns one payment, or nil when absent.
func (s *Store) GetTransaction(ctx context.Context, id string) (*fees.FeeTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `
		SELECT id, student_id, fee_head_id, receipt_id, amount_paid,
		       installment_number, payment_date, remarks, created_at
		FROM fee_transactions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

// LoadPaymentIndex bulk-loads payment sums for the session, keyed by
// (student, head, installment). Summation happens in decimal, not in
// SQL, to keep the amounts exact.
func (s *Store) LoadPaymentIndex(ctx context.Context, session string) (fees.PaymentIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.student_id, t.fee_head_id, t.installment_number, t.amount_paid
		FROM fee_transactions t
		JOIN fee_heads h ON h.id = t.fee_head_id
		WHERE h.session = ?`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment index: %w", err)
	}
	defer rows.Close()

	idx := make(fees.PaymentIndex)
	for rows.Next() {
		var studentID, headID, amount string
		var installment int
		if err := rows.Scan(&studentID, &headID, &installment, &amount); err != nil {
			return nil, err
		}
		idx.Add(studentID, headID, installment, mustDecimal(amount))
	}
	return idx, rows.Err()
}

// ListSessionTransactions returns payment facts joined with the
// student's class, for stats filtering.
func (s *Store) ListSessionTransactions(ctx context.Context, session string) ([]fees.TransactionFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.student_id, COALESCE(st.class, ''), t.fee_head_id,
		       t.installment_number, t.amount_paid, t.payment_date
		FROM fee_transactions t
		JOIN fee_heads h ON h.id = t.fee_head_id
		LEFT JOIN students st ON st.id = t.student_id
		WHERE h.session = ?
		ORDER BY t.payment_date ASC`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to query session transactions: %w", err)
	}
	defer rows.Close()

	var facts []fees.TransactionFact
	for rows.Next() {
		var (
			f             fees.TransactionFact
			amount, pDate string
		)
		if err := rows.Scan(&f.TransactionID, &f.StudentID, &f.Class, &f.FeeHeadID,
			&f.InstallmentNumber, &amount, &pDate); err != nil {
			return nil, err
		}
		f.Amount = mustDecimal(amount)
		f.PaymentDate, _ = time.Parse(time.RFC3339, pDate)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]fees.FeeTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []fees.FeeTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (fees.FeeTransaction, error) {
	var (
		tx                 fees.FeeTransaction
		receiptID, remarks sql.NullString
		amount             string
		pDate, createdAt   string
	)

	err := rows.Scan(&tx.ID, &tx.StudentID, &tx.FeeHeadID, &receiptID,
		&amount, &tx.InstallmentNumber, &pDate, &remarks, &createdAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.ReceiptID = receiptID.String
	tx.Remarks = remarks.String
	tx.AmountPaid = mustDecimal(amount)
	tx.PaymentDate, _ = time.Parse(time.RFC3339, pDate)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return tx, nil
}

// =============================================================================
// RECEIPT STORE (fees.ReceiptStore interface)
// =============================================================================

// CreateReceipt allocates receipt_no = MAX+1 and inserts the receipt
// plus all line items in one transaction. The store lock serializes the
// read-max-then-insert sequence, so concurrent creations can never
// allocate the same number.
func (s *Store) CreateReceipt(ctx context.Context, r fees.Receipt, lines []fees.FeeTransaction) (*fees.Receipt, error) {
	if len(lines) == 0 {
		return nil, fees.ErrEmptyReceipt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxNo sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(receipt_no) FROM receipts").Scan(&maxNo); err != nil {
		return nil, fmt.Errorf("failed to read max receipt_no: %w", err)
	}
	r.ReceiptNo = maxNo.Int64 + 1

	// Total is the sum of submitted line items at creation time.
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.AmountPaid)
	}
	r.TotalAmount = total

	now := time.Now().UTC()
	if r.PaymentDate.IsZero() {
		r.PaymentDate = now
	}
	r.CreatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts
		(id, receipt_no, student_id, total_amount, payment_mode, remarks, payment_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ReceiptNo, r.StudentID, r.TotalAmount.String(), string(r.PaymentMode),
		r.Remarks, r.PaymentDate.UTC().Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert receipt: %w", err)
	}

	for _, line := range lines {
		if line.PaymentDate.IsZero() {
			line.PaymentDate = r.PaymentDate
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fee_transactions
			(id, student_id, fee_head_id, receipt_id, amount_paid, installment_number,
			 payment_date, remarks, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID, line.StudentID, line.FeeHeadID, r.ID, line.AmountPaid.String(),
			line.InstallmentNumber, line.PaymentDate.UTC().Format(time.RFC3339),
			line.Remarks, now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReceipt returns a receipt and its line items, or nil when absent.
func (s *Store) GetReceipt(ctx context.Context, id string) (*fees.Receipt, []fees.FeeTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.scanReceiptRow(ctx, "WHERE id = ?", id)
	if err != nil || r == nil {
		return r, nil, err
	}

	lines, err := s.queryTransactions(ctx, `
		SELECT id, student_id, fee_head_id, receipt_id, amount_paid,
		       installment_number, payment_date, remarks, created_at
		FROM fee_transactions WHERE receipt_id = ?
		ORDER BY installment_number ASC, created_at ASC`, id)
	if err != nil {
		return nil, nil, err
	}
	return r, lines, nil
}

// ListReceipts returns receipts, newest first. An empty studentID
// returns all receipts.
func (s *Store) ListReceipts(ctx context.Context, studentID string) ([]fees.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, receipt_no, student_id, total_amount, payment_mode,
		       remarks, payment_date, created_at
		FROM receipts
	`
	var args []any
	if studentID != "" {
		query += " WHERE student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY receipt_no DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []fees.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// UpdateReceiptLines updates line amounts and recomputes the total from
// persisted transactions, in one transaction.
func (s *Store) UpdateReceiptLines(ctx context.Context, receiptID string, amounts map[string]decimal.Decimal) (*fees.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM receipts WHERE id = ?", receiptID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fees.ErrReceiptNotFound
	}

	for txID, amount := range amounts {
		res, err := tx.ExecContext(ctx,
			"UPDATE fee_transactions SET amount_paid = ? WHERE id = ? AND receipt_id = ?",
			amount.String(), txID, receiptID)
		if err != nil {
			return nil, fmt.Errorf("failed to update line %s: %w", txID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fees.ErrTransactionNotFound
		}
	}

	// Recompute from persisted lines so the receipt total always equals
	// the sum of its transactions.
	rows, err := tx.QueryContext(ctx,
		"SELECT amount_paid FROM fee_transactions WHERE receipt_id = ?", receiptID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			rows.Close()
			return nil, err
		}
		total = total.Add(mustDecimal(amount))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE receipts SET total_amount = ? WHERE id = ?", total.String(), receiptID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.scanReceiptRow(ctx, "WHERE id = ?", receiptID)
}

func (s *Store) scanReceiptRow(ctx context.Context, where string, args ...any) (*fees.Receipt, error) {
	query := `
		SELECT id, receipt_no, student_id, total_amount, payment_mode,
		       remarks, payment_date, created_at
		FROM receipts ` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanReceipt(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanReceipt(rows *sql.Rows) (fees.Receipt, error) {
	var (
		r                fees.Receipt
		remarks          sql.NullString
		total, mode      string
		pDate, createdAt string
	)
	err := rows.Scan(&r.ID, &r.ReceiptNo, &r.StudentID, &total, &mode,
		&remarks, &pDate, &createdAt)
	if err != nil {
		return r, fmt.Errorf("failed to scan receipt: %w", err)
	}
	r.TotalAmount = mustDecimal(total)
	r.PaymentMode = fees.PaymentMode(mode)
	r.Remarks = remarks.String
	r.PaymentDate, _ = time.Parse(time.RFC3339, pDate)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// =============================================================================
// RECONCILIATION STORE (recon.Store interface)
// =============================================================================

// SaveEntry inserts or updates one statement entry.
func (s *Store) SaveEntry(ctx context.Context, e recon.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveEntryTx(ctx, s.db, e)
}

// SaveEntries inserts a batch of imported entries atomically.
func (s *Store) SaveEntries(ctx context.Context, entries []recon.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := saveEntryTx(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveEntryTx(ctx context.Context, db execer, e recon.Entry) error {
	query := `
		INSERT INTO bank_statement_entries
		(id, entry_date, description, amount, ref_number, is_reconciled,
		 matched_transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entry_date = excluded.entry_date,
			description = excluded.description,
			amount = excluded.amount,
			ref_number = excluded.ref_number,
			is_reconciled = excluded.is_reconciled,
			matched_transaction_id = excluded.matched_transaction_id
	`

	createdAt := time.Now().UTC().Format(time.RFC3339)
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := db.ExecContext(ctx, query,
		e.ID, e.Date.UTC().Format("2006-01-02"), e.Description, e.Amount.String(),
		nullString(e.RefNumber), e.IsReconciled, nullString(e.MatchedTransactionID),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save statement entry: %w", err)
	}
	return nil
}

// GetEntry returns a statement entry, or nil when absent.
func (s *Store) GetEntry(ctx context.Context, id string) (*recon.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.queryEntries(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListEntries returns statement entries, newest statement date first.
func (s *Store) ListEntries(ctx context.Context, onlyUnreconciled bool) ([]recon.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if onlyUnreconciled {
		return s.queryEntries(ctx, "WHERE is_reconciled = FALSE")
	}
	return s.queryEntries(ctx, "")
}

func (s *Store) queryEntries(ctx context.Context, where string, args ...any) ([]recon.Entry, error) {
	query := `
		SELECT id, entry_date, description, amount, ref_number,
		       is_reconciled, matched_transaction_id, created_at
		FROM bank_statement_entries ` + where + `
		ORDER BY entry_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement entries: %w", err)
	}
	defer rows.Close()

	var entries []recon.Entry
	for rows.Next() {
		var (
			e                recon.Entry
			desc, ref, match sql.NullString
			amount           string
			date, createdAt  string
		)
		if err := rows.Scan(&e.ID, &date, &desc, &amount, &ref,
			&e.IsReconciled, &match, &createdAt); err != nil {
			return nil, err
		}
		e.Description = desc.String
		e.RefNumber = ref.String
		e.MatchedTransactionID = match.String
		e.Amount = mustDecimal(amount)
		e.Date, _ = time.Parse("2006-01-02", date)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListCandidates returns online payments no statement entry links to.
func (s *Store) ListCandidates(ctx context.Context) ([]recon.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, COALESCE(st.name, ''), t.amount_paid, t.payment_date
		FROM fee_transactions t
		JOIN receipts r ON r.id = t.receipt_id
		LEFT JOIN students st ON st.id = t.student_id
		WHERE r.payment_mode = 'ONLINE'
		  AND t.id NOT IN (
			SELECT matched_transaction_id FROM bank_statement_entries
			WHERE matched_transaction_id IS NOT NULL
		  )
		ORDER BY t.payment_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []recon.Candidate
	for rows.Next() {
		var (
			c             recon.Candidate
			amount, pDate string
		)
		if err := rows.Scan(&c.TransactionID, &c.StudentName, &amount, &pDate); err != nil {
			return nil, err
		}
		c.Amount = mustDecimal(amount)
		c.PaymentDate, _ = time.Parse(time.RFC3339, pDate)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// =============================================================================
// INVENTORY STORE (inventory.Store interface)
// =============================================================================

// SaveItem inserts or updates an item. Quantity is only set on insert;
// stock changes go through ApplyMovement.
func (s *Store) SaveItem(ctx context.Context, item inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO inventory_items (id, name, category, quantity, reorder_level, unit_price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			reorder_level = excluded.reorder_level,
			unit_price = excluded.unit_price
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.Name, string(item.Category), item.Quantity, item.ReorderLevel,
		item.UnitPrice.String())
	return err
}

// GetItem returns an item, or nil when absent.
func (s *Store) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getItem(ctx, id)
}

func (s *Store) getItem(ctx context.Context, id string) (*inventory.Item, error) {
	var (
		item     inventory.Item
		category string
		price    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, reorder_level, unit_price
		FROM inventory_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &category, &item.Quantity, &item.ReorderLevel, &price)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Category = inventory.Category(category)
	if price.Valid {
		item.UnitPrice = mustDecimal(price.String)
	}
	return &item, nil
}

// ListItems returns all items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryItems(ctx, "")
}

// ListLowStock returns items at or below their reorder level.
func (s *Store) ListLowStock(ctx context.Context) ([]inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryItems(ctx, "WHERE quantity <= reorder_level")
}

func (s *Store) queryItems(ctx context.Context, where string) ([]inventory.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, reorder_level, unit_price
		FROM inventory_items `+where+` ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []inventory.Item
	for rows.Next() {
		var (
			item     inventory.Item
			category string
			price    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &category,
			&item.Quantity, &item.ReorderLevel, &price); err != nil {
			return nil, err
		}
		item.Category = inventory.Category(category)
		if price.Valid {
			item.UnitPrice = mustDecimal(price.String)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ApplyMovement records a movement and adjusts the item quantity in one
// transaction.
func (s *Store) ApplyMovement(ctx context.Context, m inventory.Movement) (*inventory.Item, error) {
	if m.Quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE inventory_items SET quantity = quantity + ? WHERE id = ?",
		m.Delta(), m.ItemID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, inventory.ErrItemNotFound
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MovedAt.IsZero() {
		m.MovedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, item_id, movement_type, quantity, moved_at, remarks)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ItemID, string(m.Type), m.Quantity, m.MovedAt.UTC().Format(time.RFC3339), m.Remarks)
	if err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.getItem(ctx, m.ItemID)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"fee_transactions", "receipts", "bank_statement_entries",
		"fee_enrollments", "fee_amounts", "fee_heads", "global_fee_settings",
		"inventory_movements", "inventory_items", "students",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
