package collector

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/store"
	"github.com/terra35/vanillacost/internal/validate"
)

// RunOptions tunes a session run.
type RunOptions struct {
	// DryRun validates without persisting.
	DryRun bool
	// Progress renders a terminal progress bar during persistence.
	Progress bool
}

// Run executes one collection session end to end: collect, validate,
// persist. A session is partial-success by contract; per-record failures
// are recorded in the report and never abort the remaining records. The
// returned error is non-nil only when the session itself could not run.
func Run(ctx context.Context, cc *Context, col Collector, opts RunOptions) (*model.SessionReport, error) {
	report := &model.SessionReport{
		Supplier:  col.Supplier(),
		SessionID: uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := cc.Log.With(
		zap.String("collector", col.Name()),
		zap.String("session_id", report.SessionID),
	)

	var sessionRef int64
	if !opts.DryRun {
		var err error
		sessionRef, err = cc.Sink.StartSession(ctx, report.SessionID, report.Supplier, report.StartedAt)
		if err != nil {
			return nil, eris.Wrap(err, "collector: start session")
		}
	}

	records, err := col.Collect(ctx, cc)
	if err != nil {
		return nil, eris.Wrapf(err, "collector: %s collect", col.Name())
	}
	if cc.MaxRecords > 0 && len(records) > cc.MaxRecords {
		log.Warn("record cap reached, truncating",
			zap.Int("collected", len(records)),
			zap.Int("cap", cc.MaxRecords),
		)
		records = records[:cc.MaxRecords]
	}
	log.Info("collection finished", zap.Int("records", len(records)))

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(fmt.Sprintf("Persisting %s records", col.Supplier())),
		)
	}

	lookups := validate.Lookups{Taxonomy: cc.Sink}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "collector: session canceled")
		}

		summary := cc.Validator.ValidateRecord(ctx, rec, lookups)
		rec.Confidence = summary.Confidence
		report.Records = append(report.Records, *rec)
		for _, f := range summary.Findings {
			if f.Severity == model.SeverityWarning {
				report.AddWarning(fmt.Sprintf("%s: %s", rec.ItemID, f.Message))
			}
		}

		if !summary.IsValid() {
			report.AddError(fmt.Sprintf("%s: rejected with %d critical findings", rec.ItemID, summary.Critical))
			log.Warn("record rejected",
				zap.String("item_id", rec.ItemID),
				zap.Int("critical", summary.Critical),
			)
			if !opts.DryRun {
				if err := cc.Sink.LogCollection(ctx, sessionRef, 0, store.ActionSkipped, summary); err != nil {
					log.Warn("audit log write failed", zap.Error(err))
				}
			}
			if bar != nil {
				bar.Add(1) //nolint:errcheck
			}
			continue
		}

		if !opts.DryRun {
			if err := persistRecord(ctx, cc, sessionRef, rec); err != nil {
				report.AddError(fmt.Sprintf("%s: %v", rec.ItemID, err))
				log.Error("persist failed", zap.String("item_id", rec.ItemID), zap.Error(err))
			} else {
				report.Persisted++
			}
		}
		if bar != nil {
			bar.Add(1) //nolint:errcheck
		}
	}

	if cc.Fetcher != nil {
		report.CacheHits = cc.Fetcher.CacheHits()
		report.RequestsMade = cc.Fetcher.Requests()
	}
	report.EndedAt = time.Now()

	if !opts.DryRun {
		if err := cc.Sink.FinishSession(ctx, sessionRef, report); err != nil {
			return nil, eris.Wrap(err, "collector: finish session")
		}
	}

	log.Info("session complete",
		zap.Int("collected", len(report.Records)),
		zap.Int("persisted", report.Persisted),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration()),
	)
	return report, nil
}

// persistRecord writes one validated record: item, price, citations,
// and the audit-trail entry.
func persistRecord(ctx context.Context, cc *Context, sessionRef int64, rec *model.CandidateRecord) error {
	var categoryRef int64
	if rec.Category != "" {
		ref, ok, err := cc.Sink.ResolveCategory(ctx, rec.Category)
		if err != nil {
			return eris.Wrap(err, "resolve category")
		}
		if ok {
			categoryRef = ref
		}
	}

	recordRef, err := cc.Sink.UpsertRecord(ctx, rec.ItemID, rec.Name, categoryRef, rec.Specifications, rec.Notes)
	if err != nil {
		return eris.Wrap(err, "upsert record")
	}

	if rec.HasPrice() {
		priceRef, err := cc.Sink.UpsertPrice(ctx, recordRef, *rec.UnitCost, rec.Unit, rec.Confidence)
		if err != nil {
			return eris.Wrap(err, "upsert price")
		}
		for _, c := range rec.Citations {
			if err := cc.Sink.UpsertCitation(ctx, priceRef, c); err != nil {
				return eris.Wrap(err, "upsert citation")
			}
		}
	}

	if err := cc.Sink.LogCollection(ctx, sessionRef, recordRef, store.ActionCreated, rec); err != nil {
		cc.Log.Warn("audit log write failed", zap.String("item_id", rec.ItemID), zap.Error(err))
	}
	return nil
}
