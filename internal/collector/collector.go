// Package collector runs collection sessions: a Collector produces
// candidate records, the session runner validates them and pushes the
// valid ones into the record sink with full citation and audit-trail
// bookkeeping.
package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/citation"
	"github.com/terra35/vanillacost/internal/fetcher"
	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/store"
	"github.com/terra35/vanillacost/internal/validate"
)

// Context bundles every dependency a collector may use. Collectors
// receive it explicitly; nothing in this package reads globals.
type Context struct {
	Log       *zap.Logger
	Fetcher   *fetcher.Fetcher
	Citations *citation.Engine
	Validator *validate.Engine
	Sink      store.Sink

	// MaxRecords caps how many records a single session may collect.
	// Zero means no cap.
	MaxRecords int
}

// Collector produces candidate records for one supplier or payload.
type Collector interface {
	// Name identifies the collector in logs and session reports.
	Name() string
	// Supplier is the organization whose data the collector gathers.
	Supplier() string
	// Collect produces candidate records. Per-record problems should be
	// reported as skipped records, not as a returned error; an error
	// aborts the whole session.
	Collect(ctx context.Context, cc *Context) ([]*model.CandidateRecord, error)
}
