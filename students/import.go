/*
import.go - Bulk student import from tabular rows

PURPOSE:
  Creates or updates students from rows of a spreadsheet/CSV export.
  Rows are keyed by the external student ID: an existing student is
  updated in place, a new one is created.

ROW LAYOUT (fixed column order):
  0: student id    (required)
  1: name          (required)
  2: class         (required)
  3: contact       (optional)
  4: transport     (optional; yes/true/1/y enables transport)
  5: transport fee head name (optional; resolved case-insensitively)

ERROR MODEL:
  Row-level failures are collected into ImportResult.Errors and never
  abort the batch. A row with an empty first cell is skipped silently
  (trailing blank rows in exports).

SEE ALSO:
  - types.go: Student, Store
  - api/handlers.go: BulkImportStudents endpoint
*/
package students

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// BULK IMPORT
// =============================================================================

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Created int
	Updated int
	Errors  []string
}

// TransportHeadResolver resolves a transport fee head name to its ID.
// Returns false when no transport-flagged head carries that name.
// Supplied by the caller so this package stays independent of the fee
// catalog.
type TransportHeadResolver func(name string) (string, bool)

// BulkImport creates or updates students from tabular rows. Rows are
// matched to existing students by external student ID.
func BulkImport(ctx context.Context, store Store, rows [][]string, resolve TransportHeadResolver) (ImportResult, error) {
	var res ImportResult

	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}

		created, err := importRow(ctx, store, row, resolve)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	return res, nil
}

func importRow(ctx context.Context, store Store, row []string, resolve TransportHeadResolver) (created bool, err error) {
	externalID := strings.TrimSpace(cell(row, 0))
	name := strings.TrimSpace(cell(row, 1))
	class := strings.TrimSpace(cell(row, 2))
	contact := strings.TrimSpace(cell(row, 3))
	transportFlag := strings.ToLower(strings.TrimSpace(cell(row, 4)))
	transportHead := strings.TrimSpace(cell(row, 5))

	if name == "" {
		return false, fmt.Errorf("missing name")
	}
	if class == "" {
		return false, fmt.Errorf("missing class")
	}

	hasTransport := transportFlag == "yes" || transportFlag == "true" ||
		transportFlag == "1" || transportFlag == "y"

	var transportHeadID string
	if transportHead != "" && resolve != nil {
		if id, ok := resolve(transportHead); ok {
			transportHeadID = id
		}
	}

	existing, err := store.GetStudentByExternalID(ctx, externalID)
	if err != nil {
		return false, err
	}

	s := Student{
		ID:                 uuid.NewString(),
		StudentID:          externalID,
		Name:               name,
		Class:              class,
		Status:             StatusActive,
		HasTransport:       hasTransport,
		TransportFeeHeadID: transportHeadID,
		ContactNumber:      contact,
	}
	if existing != nil {
		// Update in place; status and address are not touched by import.
		s.ID = existing.ID
		s.Status = existing.Status
		s.Address = existing.Address
		s.CreatedAt = existing.CreatedAt
	}

	if err := store.SaveStudent(ctx, s); err != nil {
		return false, err
	}
	return existing == nil, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
