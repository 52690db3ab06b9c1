// Package store is the persistence boundary for validated cost records:
// the record sink, the category taxonomy lookup, and session bookkeeping.
// Two implementations exist, SQLite for local research databases and
// Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/terra35/vanillacost/internal/model"
)

// Sink persists validated records. Upserts are idempotent: re-submitting
// the same identity updates the existing row instead of duplicating it.
type Sink interface {
	// UpsertRecord writes the record row and returns its reference.
	UpsertRecord(ctx context.Context, identity, name string, categoryRef int64, specs map[string]string, notes string) (int64, error)
	// UpsertPrice writes the price row for a record. One price per record.
	UpsertPrice(ctx context.Context, recordRef int64, unitCost float64, unit string, tier model.ConfidenceTier) (int64, error)
	// UpsertCitation attaches a citation to a price row.
	UpsertCitation(ctx context.Context, priceRef int64, c model.SourceCitation) error

	// ResolveCategory maps free-text onto the category taxonomy.
	ResolveCategory(ctx context.Context, freeText string) (int64, bool, error)

	// StartSession opens a collection session row.
	StartSession(ctx context.Context, sessionID, supplier string, startedAt time.Time) (int64, error)
	// FinishSession closes the session and records its counters.
	FinishSession(ctx context.Context, sessionRef int64, report *model.SessionReport) error
	// LogCollection appends one audit-trail entry for a record.
	LogCollection(ctx context.Context, sessionRef, recordRef int64, action string, payload any) error

	// Health runs integrity checks over the stored data.
	Health(ctx context.Context) (*HealthReport, error)

	Migrate(ctx context.Context) error
	Close() error
}

// HealthReport summarizes data integrity across the sink.
type HealthReport struct {
	Records   int `json:"records"`
	Prices    int `json:"prices"`
	Citations int `json:"citations"`
	Sessions  int `json:"sessions"`

	// Integrity issues.
	RecordsMissingPrices   int `json:"records_missing_prices"`
	PricesMissingCitations int `json:"prices_missing_citations"`
	StaleCitations         int `json:"stale_citations"`
	OrphanedLogEntries     int `json:"orphaned_log_entries"`
}

// Healthy reports whether no integrity issues were found.
func (h *HealthReport) Healthy() bool {
	return h.RecordsMissingPrices == 0 &&
		h.PricesMissingCitations == 0 &&
		h.StaleCitations == 0 &&
		h.OrphanedLogEntries == 0
}

// Collection log action types.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// defaultCategories seeds the taxonomy on first migration. Codes follow
// the cost category taxonomy of the research database.
var defaultCategories = []struct{ Code, Name string }{
	{"infrastructure", "Infrastructure"},
	{"equipment", "Equipment"},
	{"operational_costs", "Operational Costs"},
	{"supplies", "Supplies"},
	{"labor", "Labor"},
	{"services", "Services"},
}
