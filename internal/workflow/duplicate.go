// Package workflow implements the expense intake pipeline: resource
// resolution, duplicate search, transaction creation, and receipt
// attachment.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
)

// ±3 days around the candidate date.
const duplicateWindowDays = 3

// Candidate describes a transaction being checked for an existing match.
type Candidate struct {
	Amount           float64
	TxnDate          string // YYYY-MM-DD
	VendorID         string
	FundingAccountID string
}

// SearchResult is the outcome of a duplicate search. A failed search is
// reported through Ignored and treated as "no match": duplicate prevention
// is best-effort and never blocks creation.
type SearchResult struct {
	Match   *qbo.Purchase
	Ignored error
}

// Guard searches for an already-existing purchase matching a candidate's
// amount, date, and counterparty, to reduce double-booking under retried
// requests. It is a heuristic, not a uniqueness guarantee.
type Guard struct {
	client *qbo.Client
}

// NewGuard creates a duplicate guard over the given client.
func NewGuard(client *qbo.Client) *Guard {
	return &Guard{client: client}
}

// FindLikelyPurchase looks for purchases with the exact amount and a date
// within the window, optionally narrowed by vendor and funding account.
// Among multiple hits the closest date wins, first seen breaking ties.
func (g *Guard) FindLikelyPurchase(ctx context.Context, realmID string, c Candidate) SearchResult {
	day, err := time.Parse("2006-01-02", c.TxnDate)
	if err != nil {
		return SearchResult{Ignored: fmt.Errorf("invalid candidate date: %w", err)}
	}
	from := day.AddDate(0, 0, -duplicateWindowDays).Format("2006-01-02")
	to := day.AddDate(0, 0, duplicateWindowDays).Format("2006-01-02")

	builder := qbo.Select("Purchase", "Id", "TxnDate", "TotalAmt", "AccountRef", "EntityRef").
		WhereAmount("TotalAmt", c.Amount).
		WhereDateRange("TxnDate", from, to)
	if c.VendorID != "" {
		builder.WhereEq("EntityRef", c.VendorID)
	}
	if c.FundingAccountID != "" {
		builder.WhereEq("AccountRef", c.FundingAccountID)
	}
	query := builder.Limit(1, 20).Build()

	result, err := g.client.Query(ctx, realmID, query)
	if err != nil {
		return SearchResult{Ignored: err}
	}

	rows := result.QueryResponse.Purchase
	if len(rows) == 0 {
		return SearchResult{}
	}

	best := &rows[0]
	bestDelta := dateDelta(best.TxnDate, day)
	for i := 1; i < len(rows); i++ {
		if delta := dateDelta(rows[i].TxnDate, day); delta < bestDelta {
			best = &rows[i]
			bestDelta = delta
		}
	}
	return SearchResult{Match: best}
}

func dateDelta(txnDate string, target time.Time) time.Duration {
	d, err := time.Parse("2006-01-02", txnDate)
	if err != nil {
		return 1<<62 - 1
	}
	delta := d.Sub(target)
	if delta < 0 {
		delta = -delta
	}
	return delta
}
