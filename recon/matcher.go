/*
matcher.go - Auto-match and manual reconciliation operations

PURPOSE:
  Pairs unreconciled statement entries against unlinked online payments
  by amount equality and date proximity, and exposes the manual
  link/unlink/mark operations.

AUTO-MATCH RULES:
  For each unreconciled entry, candidates are online payments with the
  exact same amount dated within +/-3 calendar days of the statement
  line.
  - Exactly one candidate          -> match
  - Several, exactly one same-day  -> match that one
  - Otherwise                      -> leave unreconciled (never match
                                      ambiguously)
  A candidate consumed by one entry is not offered to later entries in
  the same run.

SEE ALSO:
  - types.go: Entry, Candidate, Store
  - api/handlers.go: Reconciliation endpoints
*/
package recon

import (
	"context"
	"fmt"
	"time"
)

// MatchWindowDays is the calendar-day distance within which a payment
// can match a statement line.
const MatchWindowDays = 3

// =============================================================================
// AUTO-MATCH CORE
// =============================================================================

// Match links one statement entry to one payment.
type Match struct {
	EntryID       string
	TransactionID string
}

// AutoMatch computes unambiguous pairings between unreconciled entries
// and candidates. Pure function over pre-loaded slices; persistence is
// the caller's job (see Reconciler.AutoMatch).
func AutoMatch(entries []Entry, candidates []Candidate) []Match {
	var matches []Match
	consumed := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsReconciled {
			continue
		}

		var inWindow []Candidate
		for _, c := range candidates {
			if consumed[c.TransactionID] {
				continue
			}
			if !c.Amount.Equal(entry.Amount) {
				continue
			}
			if dayDistance(entry.Date, c.PaymentDate) <= MatchWindowDays {
				inWindow = append(inWindow, c)
			}
		}

		chosen, ok := pick(entry, inWindow)
		if !ok {
			continue
		}

		matches = append(matches, Match{EntryID: entry.ID, TransactionID: chosen.TransactionID})
		consumed[chosen.TransactionID] = true
	}

	return matches
}

// pick applies the disambiguation rule: one candidate wins outright;
// among several, only an unique exact-date candidate wins.
func pick(entry Entry, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 1 {
		return candidates[0], true
	}
	if len(candidates) < 2 {
		return Candidate{}, false
	}

	var sameDay []Candidate
	for _, c := range candidates {
		if sameDate(entry.Date, c.PaymentDate) {
			sameDay = append(sameDay, c)
		}
	}
	if len(sameDay) == 1 {
		return sameDay[0], true
	}
	return Candidate{}, false
}

func dayDistance(a, b time.Time) int {
	days := int(truncateDay(a).Sub(truncateDay(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// RECONCILER - Store-backed operations
// =============================================================================

// Reconciler applies matching and manual operations against the store.
type Reconciler struct {
	Store Store
}

// AutoMatchResult summarizes one auto-match run.
type AutoMatchResult struct {
	Matched   int
	Remaining int
}

// AutoMatch loads unreconciled entries and candidates, computes
// pairings, and persists them.
func (r *Reconciler) AutoMatch(ctx context.Context) (AutoMatchResult, error) {
	entries, err := r.Store.ListEntries(ctx, true)
	if err != nil {
		return AutoMatchResult{}, fmt.Errorf("load entries: %w", err)
	}
	candidates, err := r.Store.ListCandidates(ctx)
	if err != nil {
		return AutoMatchResult{}, fmt.Errorf("load candidates: %w", err)
	}

	matches := AutoMatch(entries, candidates)

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for _, m := range matches {
		e := byID[m.EntryID]
		e.IsReconciled = true
		e.MatchedTransactionID = m.TransactionID
		if err := r.Store.SaveEntry(ctx, e); err != nil {
			return AutoMatchResult{}, fmt.Errorf("persist match: %w", err)
		}
	}

	return AutoMatchResult{
		Matched:   len(matches),
		Remaining: len(entries) - len(matches),
	}, nil
}

// Reconcile marks an entry reconciled, optionally linking a transaction.
// An empty transactionID records manual reconciliation without linkage.
func (r *Reconciler) Reconcile(ctx context.Context, entryID, transactionID string) (*Entry, error) {
	entry, err := r.Store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.IsReconciled {
		return nil, ErrAlreadyReconciled
	}

	entry.IsReconciled = true
	entry.MatchedTransactionID = transactionID
	if err := r.Store.SaveEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Unreconcile reverses a previous reconciliation, clearing any link.
func (r *Reconciler) Unreconcile(ctx context.Context, entryID string) (*Entry, error) {
	entry, err := r.Store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if !entry.IsReconciled {
		return nil, ErrNotReconciled
	}

	entry.IsReconciled = false
	entry.MatchedTransactionID = ""
	if err := r.Store.SaveEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}
