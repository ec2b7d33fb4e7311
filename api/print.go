/*
print.go - Printable receipt view

PURPOSE:
  Assembles everything the frontend needs to render a physical fee
  receipt: the receipt with its lines sorted for presentation, the
  student's details, and the total spelled out in words (Indian
  numbering system), as printed receipts carry.

SEE ALSO:
  - handlers.go: Receipt CRUD
  - dto.go: ReceiptDTO, StudentDTO
*/
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ReceiptPrintDTO is the payload for the printable receipt view.
type ReceiptPrintDTO struct {
	Receipt       ReceiptDTO `json:"receipt"`
	Student       StudentDTO `json:"student"`
	AmountInWords string     `json:"amount_in_words"`
}

// PrintReceipt returns the printable view of a receipt. Lines are
// sorted by head name, then installment.
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request) {
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
	dto.Lines = h.lineDTOs(r, lines)
	sort.SliceStable(dto.Lines, func(i, j int) bool {
		if dto.Lines[i].FeeHeadName != dto.Lines[j].FeeHeadName {
			return dto.Lines[i].FeeHeadName < dto.Lines[j].FeeHeadName
		}
		return dto.Lines[i].InstallmentNumber < dto.Lines[j].InstallmentNumber
	})

	res := ReceiptPrintDTO{
		Receipt:       dto,
		AmountInWords: amountInWords(dto.TotalAmount),
	}
	if st, err := h.Store.GetStudent(r.Context(), receipt.StudentID); err == nil && st != nil {
		res.Receipt.StudentName = st.Name
		res.Student = toStudentDTO(*st)
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// AMOUNT IN WORDS (Indian numbering: crore, lakh, thousand)
// =============================================================================

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight",
	"Nine", "Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy",
	"Eighty", "Ninety",
}

// amountInWords spells a rounded rupee amount in the Indian system, e.g.
// 1500.50 -> "Rupees One Thousand Five Hundred and Fifty Paise Only".
func amountInWords(amount float64) string {
	if amount < 0 {
		return "Minus " + amountInWords(-amount)
	}

	rupees := int64(amount)
	paise := int64(amount*100+0.5) - rupees*100

	var parts []string
	if rupees > 0 {
		parts = append(parts, "Rupees", integerWords(rupees))
	}
	if paise > 0 {
		if rupees > 0 {
			parts = append(parts, "and")
		}
		parts = append(parts, integerWords(paise), "Paise")
	}
	if len(parts) == 0 {
		parts = append(parts, "Rupees Zero")
	}
	parts = append(parts, "Only")
	return strings.Join(parts, " ")
}

func integerWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	scale := func(div int64, label string) {
		if n >= div {
			parts = append(parts, belowThousand(n/div), label)
			n %= div
		}
	}
	scale(1_00_00_000, "Crore")
	scale(1_00_000, "Lakh")
	scale(1_000, "Thousand")
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		if n%10 > 0 {
			parts = append(parts, tensWords[n/10], onesWords[n%10])
		} else {
			parts = append(parts, tensWords[n/10])
		}
	case n > 0:
		parts = append(parts, onesWords[n])
	}
	return strings.Join(parts, " ")
}
