// Package validate runs quality rules against candidate records and
// aggregates findings into a score and confidence tier. Rules are an
// explicit ordered list so each can be tested in isolation and new ones
// registered without touching the engine.
package validate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/config"
	"github.com/terra35/vanillacost/internal/model"
)

// TaxonomyLookup resolves free-text categories against the external
// taxonomy. Implemented by the record sink.
type TaxonomyLookup interface {
	ResolveCategory(ctx context.Context, freeText string) (int64, bool, error)
}

// Lookups carries the external dependencies rules may consult. A nil
// Taxonomy disables category resolution checks.
type Lookups struct {
	Taxonomy TaxonomyLookup
}

// Rule evaluates one concern against a record and returns zero or more
// findings. Implementations must not mutate the record.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, rec *model.CandidateRecord, lk Lookups) []model.Finding
}

// Engine validates candidate records.
type Engine struct {
	cfg   config.ValidationConfig
	rules []Rule
	now   func() time.Time
}

// New creates an Engine with the standard rule set.
func New(cfg config.ValidationConfig) *Engine {
	e := &Engine{cfg: cfg, now: time.Now}
	e.rules = []Rule{
		requiredFieldsRule{},
		itemIDFormatRule{},
		categoryExistsRule{},
		priceRangeRule{prices: cfg.Prices},
		priceUnitRule{},
		pricePlausibilityRule{},
		sourceRequiredRule{},
		sourceURLRule{},
		freshnessRule{windows: cfg.Freshness, now: func() time.Time { return e.now() }},
		specificationsRule{},
		productCodeRule{},
	}
	return e
}

// Register appends a rule to the engine's list.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

// ValidateRecord runs every rule against the record and aggregates the
// findings. A rule that panics contributes a single critical finding
// naming the rule; it never aborts validation of the record.
func (e *Engine) ValidateRecord(ctx context.Context, rec *model.CandidateRecord, lk Lookups) *model.Summary {
	var findings []model.Finding
	for _, rule := range e.rules {
		findings = append(findings, e.evalRule(ctx, rule, rec, lk)...)
	}
	return e.summarize(rec, findings)
}

// ValidateBatch validates records independently: one record's findings,
// however severe, never stop the rest of the batch.
func (e *Engine) ValidateBatch(ctx context.Context, recs []*model.CandidateRecord, lk Lookups) []*model.Summary {
	summaries := make([]*model.Summary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, e.ValidateRecord(ctx, rec, lk))
	}
	return summaries
}

func (e *Engine) evalRule(ctx context.Context, rule Rule, rec *model.CandidateRecord, lk Lookups) (findings []model.Finding) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("validate: rule panicked",
				zap.String("rule", rule.Name()),
				zap.String("item_id", rec.ItemID),
				zap.Any("panic", r),
			)
			findings = []model.Finding{{
				Rule:     rule.Name(),
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("validation rule failed: %v", r),
				Field:    "validation_system",
			}}
		}
	}()
	return rule.Evaluate(ctx, rec, lk)
}

func (e *Engine) summarize(rec *model.CandidateRecord, findings []model.Finding) *model.Summary {
	s := &model.Summary{
		ItemID:      rec.ItemID,
		TotalChecks: len(findings),
		Findings:    findings,
	}
	for _, f := range findings {
		switch f.Severity {
		case model.SeverityWarning:
			s.Warnings++
		case model.SeverityError:
			s.Errors++
		case model.SeverityCritical:
			s.Critical++
		}
	}
	s.Passed = s.TotalChecks - s.Warnings - s.Errors - s.Critical
	s.Score = e.qualityScore(rec, s)
	s.Confidence = e.confidenceTier(s.Score, s.Critical, s.Errors)
	return s
}
