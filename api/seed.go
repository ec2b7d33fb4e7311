/*
seed.go - Demo data seeding for testing and demonstrations

PURPOSE:

	Populates the database with a realistic school setup for demos and
	manual testing: one session with four fee heads (tuition, admission,
	exam, transport), a small roster across two classes, a transport
	rider, an opt-out, and a few payments in both modes.

HOW SEEDING WORKS:
 1. Reset database (clear all data)
 2. Create the session setting (4 installments)
 3. Create fee heads with per-class amounts
 4. Create students, including one transport rider
 5. Record an opt-out and a handful of receipts
 6. Add inventory items

USAGE VIA API:

	POST /api/admin/seed-demo

NOTE:

	Seeding resets the database. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vidya/school-erp/fees"
	"github.com/vidya/school-erp/inventory"
	"github.com/vidya/school-erp/students"
)

const seedSession = "2026-27"

// SeedDemo resets the database and loads the demo dataset.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.seed(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "seeded",
		"session": seedSession,
	})
}

func (h *Handler) seed(ctx context.Context) error {
	if err := h.Store.SaveGlobalSetting(ctx, fees.GlobalFeeSetting{
		Session:          seedSession,
		InstallmentCount: 4,
		DueDay:           10,
		LateFeeAmount:    decimal.NewFromInt(50),
		LateFeeStartDay:  15,
		LateFeeFrequency: fees.LateFeeOnce,
	}); err != nil {
		return fmt.Errorf("seed setting: %w", err)
	}

	amt := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	heads := []fees.FeeHead{
		{
			ID:        uuid.NewString(),
			Name:      "Tuition Fee",
			Session:   seedSession,
			Frequency: fees.FrequencyInstallments,
			Amounts:   map[string]decimal.Decimal{"Class 5": amt(12000), "Class 6": amt(14000)},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Admission Fee",
			Session:   seedSession,
			Frequency: fees.FrequencyOnce,
			Amounts:   map[string]decimal.Decimal{"Class 5": amt(2000), "Class 6": amt(2000)},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Exam Fee",
			Session:   seedSession,
			Frequency: fees.FrequencyInstallments,
			Amounts:   map[string]decimal.Decimal{"Class 5": amt(1200), "Class 6": amt(1600)},
		},
		{
			ID:             uuid.NewString(),
			Name:           "Bus Route A",
			Session:        seedSession,
			Frequency:      fees.FrequencyInstallments,
			IsTransportFee: true,
			Amounts:        map[string]decimal.Decimal{"Class 5": amt(6000), "Class 6": amt(6000)},
		},
	}
	for _, head := range heads {
		if err := h.Store.SaveFeeHead(ctx, head); err != nil {
			return fmt.Errorf("seed head %s: %w", head.Name, err)
		}
	}
	transportHead := heads[3]

	roster := []students.Student{
		{ID: uuid.NewString(), StudentID: "ADM-001", Name: "Aarav Sharma", Class: "Class 5", Status: students.StatusActive, ContactNumber: "9800000001"},
		{ID: uuid.NewString(), StudentID: "ADM-002", Name: "Diya Patel", Class: "Class 5", Status: students.StatusActive, HasTransport: true, TransportFeeHeadID: transportHead.ID, ContactNumber: "9800000002"},
		{ID: uuid.NewString(), StudentID: "ADM-003", Name: "Kabir Singh", Class: "Class 6", Status: students.StatusActive, ContactNumber: "9800000003"},
		{ID: uuid.NewString(), StudentID: "ADM-004", Name: "Meera Iyer", Class: "Class 6", Status: students.StatusActive, ContactNumber: "9800000004"},
	}
	for _, st := range roster {
		if err := h.Store.SaveStudent(ctx, st); err != nil {
			return fmt.Errorf("seed student %s: %w", st.StudentID, err)
		}
	}

	// Kabir sits out the 4th exam-fee installment.
	if err := h.Store.SetEnrollment(ctx, fees.StudentFeeEnrollment{
		StudentID:         roster[2].ID,
		FeeHeadID:         heads[2].ID,
		Session:           seedSession,
		InstallmentNumber: 4,
		IsEnrolled:        false,
	}); err != nil {
		return fmt.Errorf("seed enrollment: %w", err)
	}

	paymentDate := time.Date(2026, time.April, 8, 0, 0, 0, 0, time.UTC)
	payments := []struct {
		student students.Student
		mode    fees.PaymentMode
		head    fees.FeeHead
		inst    int
		amount  int64
	}{
		{roster[0], fees.PaymentCash, heads[0], 1, 3000},
		{roster[1], fees.PaymentOnline, heads[0], 1, 3000},
		{roster[1], fees.PaymentOnline, heads[3], 1, 1500},
		{roster[2], fees.PaymentCash, heads[1], 1, 2000},
	}
	for _, p := range payments {
		receipt := fees.Receipt{
			ID:          uuid.NewString(),
			StudentID:   p.student.ID,
			PaymentMode: p.mode,
			PaymentDate: paymentDate,
		}
		line := fees.FeeTransaction{
			ID:                uuid.NewString(),
			StudentID:         p.student.ID,
			FeeHeadID:         p.head.ID,
			AmountPaid:        amt(p.amount),
			InstallmentNumber: p.inst,
			PaymentDate:       paymentDate,
		}
		if _, err := h.Store.CreateReceipt(ctx, receipt, []fees.FeeTransaction{line}); err != nil {
			return fmt.Errorf("seed receipt for %s: %w", p.student.StudentID, err)
		}
	}

	items := []inventory.Item{
		{ID: uuid.NewString(), Name: "Whiteboard Marker", Category: inventory.CategoryStationery, Quantity: 40, ReorderLevel: 10, UnitPrice: amt(25)},
		{ID: uuid.NewString(), Name: "Student Desk", Category: inventory.CategoryFurniture, Quantity: 8, ReorderLevel: 10, UnitPrice: amt(1800)},
		{ID: uuid.NewString(), Name: "Projector", Category: inventory.CategoryElectronics, Quantity: 3, ReorderLevel: 1, UnitPrice: amt(32000)},
	}
	for _, item := range items {
		if err := h.Store.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("seed item %s: %w", item.Name, err)
		}
	}

	return nil
}
