/*
importer.go - CSV ingestion for bank statements

PURPOSE:
  Parses exported bank statements into Entry rows. Banks disagree on
  header names and date formats, so the importer resolves columns
  through an alias table and tries a fixed ordered list of date layouts
  per row.

ERROR MODEL:
  A row that fails to parse is recorded in ImportResult.Errors and
  skipped; the rest of the file still imports. Only a missing required
  column (date or amount) aborts the whole import.

SEE ALSO:
  - types.go: Entry
  - api/handlers.go: ImportStatement endpoint
*/
package recon

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// columnAliases maps each logical field to the header spellings seen in
// bank exports. Comparison is case-insensitive after trimming.
var columnAliases = map[string][]string{
	"date":        {"date", "txn date", "transaction date", "value date", "posting date"},
	"description": {"description", "narration", "particulars", "details", "remarks"},
	"amount":      {"amount", "credit", "credit amount", "deposit", "amount (inr)"},
	"ref":         {"ref", "reference", "ref no", "ref number", "reference number", "utr", "cheque no"},
}

// dateLayouts is the fixed ordered list of formats attempted per row.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"02 Jan 2006",
}

// ImportResult summarizes a statement import.
type ImportResult struct {
	Imported int
	Errors   []string
	Entries  []Entry
}

// ParseCSV reads a bank-statement CSV into entries. The first row must
// be a header; date and amount columns are required, description and
// reference optional.
func ParseCSV(r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return res, err
	}

	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if blankRow(record) {
			continue
		}

		entry, err := parseRow(record, cols)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		res.Entries = append(res.Entries, entry)
		res.Imported++
	}

	return res, nil
}

type columns struct {
	date, description, amount, ref int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{date: -1, description: -1, amount: -1, ref: -1}

	find := func(field string) int {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, alias := range columnAliases[field] {
				if h == alias {
					return i
				}
			}
		}
		return -1
	}

	cols.date = find("date")
	cols.description = find("description")
	cols.amount = find("amount")
	cols.ref = find("ref")

	if cols.date < 0 {
		return cols, fmt.Errorf("no date column found (tried: %s)", strings.Join(columnAliases["date"], ", "))
	}
	if cols.amount < 0 {
		return cols, fmt.Errorf("no amount column found (tried: %s)", strings.Join(columnAliases["amount"], ", "))
	}
	return cols, nil
}

func parseRow(record []string, cols columns) (Entry, error) {
	date, err := parseDate(field(record, cols.date))
	if err != nil {
		return Entry{}, err
	}

	amountStr := strings.ReplaceAll(field(record, cols.amount), ",", "")
	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil {
		return Entry{}, fmt.Errorf("bad amount %q", field(record, cols.amount))
	}

	return Entry{
		ID:          uuid.NewString(),
		Date:        date,
		Description: strings.TrimSpace(field(record, cols.description)),
		Amount:      amount,
		RefNumber:   strings.TrimSpace(field(record, cols.ref)),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func field(record []string, i int) string {
	if i >= 0 && i < len(record) {
		return record[i]
	}
	return ""
}

func blankRow(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
