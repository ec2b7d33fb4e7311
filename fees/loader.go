/*
loader.go - Bulk snapshot loading for the liability engine

PURPOSE:
  Builds the LiabilityData snapshot the engine computes over. Exactly
  four store calls per request regardless of how many students or heads
  the session carries; the nested engine iteration then runs purely in
  memory.

SEE ALSO:
  - engine.go: Consumes the snapshot
  - store.go:  The bulk-loading interfaces
*/
package fees

import (
	"context"
	"fmt"
)

// LiabilityLoader is the store surface the loader needs.
type LiabilityLoader interface {
	CatalogStore
	EnrollmentStore
	TransactionStore
}

// LoadLiabilityData bulk-loads everything the engine needs for one
// session: heads with amounts, the installment setting, the opt-out
// index, and the payment-sum index. A missing or malformed setting is
// not an error; the installment count falls back to 1.
func LoadLiabilityData(ctx context.Context, store LiabilityLoader, session string) (LiabilityData, error) {
	heads, err := store.ListFeeHeads(ctx, session)
	if err != nil {
		return LiabilityData{}, fmt.Errorf("load fee heads: %w", err)
	}

	setting, err := store.GetGlobalSetting(ctx, session)
	if err != nil {
		return LiabilityData{}, fmt.Errorf("load session setting: %w", err)
	}

	enrollment, err := store.LoadEnrollmentSet(ctx, session)
	if err != nil {
		return LiabilityData{}, fmt.Errorf("load enrollment overrides: %w", err)
	}

	payments, err := store.LoadPaymentIndex(ctx, session)
	if err != nil {
		return LiabilityData{}, fmt.Errorf("load payments: %w", err)
	}

	return LiabilityData{
		Session:          session,
		InstallmentCount: ResolveInstallmentCount(setting),
		Heads:            heads,
		Enrollment:       enrollment,
		Payments:         payments,
	}, nil
}
