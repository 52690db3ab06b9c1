package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra35/vanillacost/internal/model"
)

func findByRule(findings []model.Finding, rule string) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestItemIDFormat(t *testing.T) {
	tests := []struct {
		id   string
		want bool // convention satisfied
	}{
		{"FARMTEK_GT1220", true},
		{"GROWERS_BENCH_4X8", true},
		{"farmtek_gt1220", false},
		{"FARMTEK-GT1220", false},
		{"FARMTEK", false},
	}
	for _, tt := range tests {
		rec := &model.CandidateRecord{ItemID: tt.id}
		findings := itemIDFormatRule{}.Evaluate(context.Background(), rec, Lookups{})
		if tt.want {
			assert.Empty(t, findings, "id %s", tt.id)
		} else {
			require.Len(t, findings, 1, "id %s", tt.id)
			assert.Equal(t, model.SeverityWarning, findings[0].Severity)
		}
	}
}

func TestPriceRange_SuspiciousBands(t *testing.T) {
	e := fixedEngine(t)

	tests := []struct {
		name     string
		cost     float64
		warnings int
		errors   int
	}{
		{"normal", 2500.0, 0, 0},
		{"below minimum", 0.001, 2, 0}, // hard-bound warning plus suspicious-low warning
		{"suspiciously low", 0.05, 1, 0},
		{"suspiciously high", 60000.0, 1, 0},
		{"above maximum", 150000.0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := completeRecord()
			rec.UnitCost = price(tt.cost)
			rec.Category = "supplies" // keep plausibility bands out of the way
			s := e.ValidateRecord(context.Background(), rec, Lookups{})

			ranged := findByRule(s.Findings, "price_range")
			warnings, errs := 0, 0
			for _, f := range ranged {
				switch f.Severity {
				case model.SeverityWarning:
					warnings++
				case model.SeverityError:
					errs++
				}
			}
			assert.Equal(t, tt.warnings, warnings)
			assert.Equal(t, tt.errors, errs)
		})
	}
}

func TestPricePlausibility_CategoryBands(t *testing.T) {
	rec := &model.CandidateRecord{
		ItemID:   "FARMTEK_X",
		Name:     "Shade cloth",
		Category: "infrastructure",
		UnitCost: price(2.50),
		Unit:     "per_sq_ft",
	}
	findings := pricePlausibilityRule{}.Evaluate(context.Background(), rec, Lookups{})
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "infrastructure")

	rec.UnitCost = price(12.0)
	assert.Empty(t, pricePlausibilityRule{}.Evaluate(context.Background(), rec, Lookups{}))

	// Unknown category/unit pairs are not judged.
	rec.Category = "labor"
	assert.Empty(t, pricePlausibilityRule{}.Evaluate(context.Background(), rec, Lookups{}))
}

func TestFreshnessGates(t *testing.T) {
	e := fixedEngine(t) // now = 2026-08-30

	tests := []struct {
		name string
		date string
		want model.Severity
	}{
		{"fresh", "2026-08-01", ""},
		{"getting old", "2026-04-01", model.SeverityWarning},
		{"too old", "2025-06-01", model.SeverityError},
		{"critically old", "2023-01-01", model.SeverityCritical},
		{"missing date", "", model.SeverityWarning},
		{"unparseable date", "sometime in spring", model.SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := completeRecord()
			rec.Citations[0].DateObserved = tt.date
			s := e.ValidateRecord(context.Background(), rec, Lookups{})

			fresh := findByRule(s.Findings, "data_freshness")
			if tt.want == "" {
				assert.Empty(t, fresh)
				return
			}
			require.Len(t, fresh, 1)
			assert.Equal(t, tt.want, fresh[0].Severity)
		})
	}
}

func TestProductCodeFormat(t *testing.T) {
	rec := completeRecord()
	rec.Citations[0].ProductCode = "GT-1220"
	assert.Empty(t, productCodeRule{}.Evaluate(context.Background(), rec, Lookups{}))

	rec.Citations[0].ProductCode = "gt 1220!"
	findings := productCodeRule{}.Evaluate(context.Background(), rec, Lookups{})
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityWarning, findings[0].Severity)
}

func TestSourceURLFormat(t *testing.T) {
	rec := completeRecord()
	rec.Citations = append(rec.Citations, model.SourceCitation{
		Kind:      model.KindSupplierWebsite,
		SourceURL: "ftp://files.example.com/catalog.pdf",
	})
	findings := sourceURLRule{}.Evaluate(context.Background(), rec, Lookups{})
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityError, findings[0].Severity)
	assert.Equal(t, "citations[1].source_url", findings[0].Field)
}

func TestCategoryExists_TaxonomyUnavailableSkips(t *testing.T) {
	rec := completeRecord()
	lk := Lookups{Taxonomy: fakeTaxonomy{err: errors.New("database locked")}}
	findings := categoryExistsRule{}.Evaluate(context.Background(), rec, lk)
	assert.Empty(t, findings, "an unavailable taxonomy must not penalize records")
}
