package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra35/vanillacost/internal/config"
	"github.com/terra35/vanillacost/internal/model"
)

func testConfig() config.ValidationConfig {
	return config.ValidationConfig{
		Thresholds: config.QualityThresholds{Excellent: 0.95, Good: 0.85, Acceptable: 0.70},
		Prices: config.PriceRanges{
			MinReasonable:  0.01,
			MaxReasonable:  100000.0,
			SuspiciousHigh: 50000.0,
			SuspiciousLow:  0.10,
		},
		Freshness: config.FreshnessWindows{
			MaxAgeDays:       365,
			PreferredAgeDays: 90,
			CriticalAgeDays:  730,
		},
		Weights: config.ConfidenceWeights{
			HasSource:         0.25,
			RecentData:        0.20,
			CompleteFields:    0.20,
			ReasonablePrice:   0.15,
			HasProductCode:    0.10,
			HasSpecifications: 0.10,
		},
	}
}

func fixedEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testConfig())
	e.now = func() time.Time {
		return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func price(v float64) *float64 { return &v }

// completeRecord passes every rule at the engine's fixed clock.
func completeRecord() *model.CandidateRecord {
	return &model.CandidateRecord{
		ItemID:   "FARMTEK_GT1220",
		Name:     "Gothic Arch Greenhouse Kit 12x20",
		Category: "infrastructure",
		Specifications: map[string]string{
			"size":     "12' x 20'",
			"covering": "6mm twin-wall polycarbonate",
		},
		UnitCost: price(2499.00),
		Unit:     "each",
		Citations: []model.SourceCitation{{
			Kind:         model.KindSupplierWebsite,
			SourceURL:    "https://www.farmtek.com/product/gothic-arch-greenhouse-gt-1220",
			Organization: "FarmTek",
			DateObserved: "2026-08-15",
			ProductCode:  "GT-1220",
			Confidence:   0.95,
		}},
	}
}

func TestValidateRecord_CleanRecordIsVerified(t *testing.T) {
	e := fixedEngine(t)

	s := e.ValidateRecord(context.Background(), completeRecord(), Lookups{})

	assert.True(t, s.IsValid())
	assert.Zero(t, s.Critical)
	assert.Zero(t, s.Errors)
	assert.Zero(t, s.Warnings)
	assert.InDelta(t, 1.0, s.Score, 1e-9)
	assert.Equal(t, model.TierVerified, s.Confidence)
}

func TestValidateRecord_NoCitations(t *testing.T) {
	e := fixedEngine(t)

	rec := completeRecord()
	rec.Citations = nil
	s := e.ValidateRecord(context.Background(), rec, Lookups{})

	require.Len(t, s.Findings, 1)
	assert.Equal(t, "source_required", s.Findings[0].Rule)
	assert.Equal(t, model.SeverityCritical, s.Findings[0].Severity)
	assert.False(t, s.IsValid())
	assert.Equal(t, model.TierLow, s.Confidence)
}

func TestValidateRecord_PriceWithoutUnit(t *testing.T) {
	e := fixedEngine(t)

	rec := completeRecord()
	rec.UnitCost = price(100.0)
	rec.Unit = ""
	s := e.ValidateRecord(context.Background(), rec, Lookups{})

	assert.Equal(t, 1, s.Errors)
	var found bool
	for _, f := range s.Findings {
		if f.Rule == "price_unit_consistency" {
			found = true
			assert.Equal(t, model.SeverityError, f.Severity)
			assert.Contains(t, f.Message, "unit is missing")
		}
	}
	assert.True(t, found)
	assert.True(t, s.IsValid(), "an error finding does not block persistence")
}

func TestValidateRecord_MissingRequiredFields(t *testing.T) {
	e := fixedEngine(t)

	s := e.ValidateRecord(context.Background(), &model.CandidateRecord{}, Lookups{})

	assert.Equal(t, 4, s.Critical, "three missing fields plus no citations")
	assert.False(t, s.IsValid())
	assert.Equal(t, model.TierLow, s.Confidence)
}

func TestValidateRecord_ValidityMatchesCriticalCount(t *testing.T) {
	e := fixedEngine(t)

	for _, rec := range []*model.CandidateRecord{
		completeRecord(),
		{},
		{ItemID: "X_Y", Name: "thing", Category: "infrastructure"},
	} {
		s := e.ValidateRecord(context.Background(), rec, Lookups{})
		assert.Equal(t, s.Critical == 0, s.IsValid())
	}
}

type panickyRule struct{}

func (panickyRule) Name() string { return "panicky" }

func (panickyRule) Evaluate(context.Context, *model.CandidateRecord, Lookups) []model.Finding {
	panic("rule blew up")
}

func TestValidateRecord_RulePanicBecomesCriticalFinding(t *testing.T) {
	e := fixedEngine(t)
	e.Register(panickyRule{})

	s := e.ValidateRecord(context.Background(), completeRecord(), Lookups{})

	assert.Equal(t, 1, s.Critical)
	assert.False(t, s.IsValid())
	last := s.Findings[len(s.Findings)-1]
	assert.Equal(t, "panicky", last.Rule)
	assert.Contains(t, last.Message, "rule blew up")
}

func TestValidateBatch_IndependentRecords(t *testing.T) {
	e := fixedEngine(t)
	e.Register(panickyRule{})

	broken := completeRecord()
	fine := completeRecord()
	summaries := e.ValidateBatch(context.Background(), []*model.CandidateRecord{broken, fine}, Lookups{})

	require.Len(t, summaries, 2)
	// Both carry the panic finding, but neither stopped the other.
	assert.Equal(t, broken.ItemID, summaries[0].ItemID)
	assert.Equal(t, fine.ItemID, summaries[1].ItemID)
}

type fakeTaxonomy struct {
	known map[string]int64
	err   error
}

func (f fakeTaxonomy) ResolveCategory(_ context.Context, freeText string) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.known[freeText]
	return id, ok, nil
}

func TestValidateRecord_UnresolvableCategory(t *testing.T) {
	e := fixedEngine(t)

	rec := completeRecord()
	rec.Category = "moon_bases"
	lk := Lookups{Taxonomy: fakeTaxonomy{known: map[string]int64{"infrastructure": 1}}}
	s := e.ValidateRecord(context.Background(), rec, lk)

	var found bool
	for _, f := range s.Findings {
		if f.Rule == "category_exists" {
			found = true
			assert.Equal(t, model.SeverityError, f.Severity)
		}
	}
	assert.True(t, found)
}
