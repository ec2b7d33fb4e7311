/*
Package students provides student records and bulk enrollment import.

PURPOSE:
  Holds the Student record type, its lifecycle states, and the bulk
  import pipeline that creates or updates students from tabular rows.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student: identity, class, status, transport subscription
  - Status: ACTIVE or TC (transfer certificate issued)
  - Store: persistence interface implemented by store/sqlite

LIFECYCLE:
  Students are created manually or via bulk import (import.go). The
  ACTIVE -> TC transition is guarded by the fee engine: a student with a
  positive pending balance cannot be marked TC (see fees.TransferGate).

SEE ALSO:
  - import.go: Bulk import from tabular rows
  - fees/engine.go: Liability computation consuming Student records
*/
package students

import (
	"context"
	"time"
)

// =============================================================================
// STUDENT
// =============================================================================

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusTC     Status = "TC"
)

// Student is a school enrollment record. StudentID is the external
// (admission register) identifier and is unique; ID is the storage key.
type Student struct {
	ID        string
	StudentID string
	Name      string
	Class     string
	Status    Status

	// Transport subscription. A student is only ever charged for the
	// specific transport fee head assigned here, never for other
	// transport-flagged heads.
	HasTransport       bool
	TransportFeeHeadID string

	ContactNumber string
	Address       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store handles student persistence.
type Store interface {
	// SaveStudent inserts or updates a student by ID.
	SaveStudent(ctx context.Context, s Student) error

	// GetStudent returns a student by storage ID, or nil when absent.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// GetStudentByExternalID returns a student by admission-register ID,
	// or nil when absent.
	GetStudentByExternalID(ctx context.Context, studentID string) (*Student, error)

	// ListStudents returns students, optionally filtered by class.
	// An empty class returns all students.
	ListStudents(ctx context.Context, class string) ([]Student, error)
}
