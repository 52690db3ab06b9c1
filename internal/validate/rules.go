package validate

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/config"
	"github.com/terra35/vanillacost/internal/model"
)

// requiredFieldsRule checks the fields no record may omit.
type requiredFieldsRule struct{}

func (requiredFieldsRule) Name() string { return "required_fields" }

func (requiredFieldsRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	var findings []model.Finding
	for _, rf := range []struct{ name, value string }{
		{"item_id", rec.ItemID},
		{"item_name", rec.Name},
		{"category", rec.Category},
	} {
		if rf.value == "" {
			findings = append(findings, model.Finding{
				Rule:     "required_fields",
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("required field %q is missing or empty", rf.name),
				Field:    rf.name,
				Hint:     fmt.Sprintf("provide a valid value for %s", rf.name),
			})
		}
	}
	return findings
}

var itemIDRE = regexp.MustCompile(`^[A-Z]+_[A-Z0-9_]+$`)

// itemIDFormatRule checks the uppercase-token identifier convention.
type itemIDFormatRule struct{}

func (itemIDFormatRule) Name() string { return "item_id_format" }

func (itemIDFormatRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if rec.ItemID == "" || itemIDRE.MatchString(rec.ItemID) {
		return nil
	}
	return []model.Finding{{
		Rule:     "item_id_format",
		Severity: model.SeverityWarning,
		Message:  "item ID does not follow the naming convention",
		Field:    "item_id",
		Actual:   rec.ItemID,
		Expected: "SUPPLIER_PRODUCT_CODE format",
		Hint:     "use an identifier like FARMTEK_GT1220",
	}}
}

// categoryExistsRule resolves the category against the taxonomy. An
// unavailable taxonomy skips the check rather than penalizing records.
type categoryExistsRule struct{}

func (categoryExistsRule) Name() string { return "category_exists" }

func (categoryExistsRule) Evaluate(ctx context.Context, rec *model.CandidateRecord, lk Lookups) []model.Finding {
	if rec.Category == "" || lk.Taxonomy == nil {
		return nil
	}
	_, ok, err := lk.Taxonomy.ResolveCategory(ctx, rec.Category)
	if err != nil {
		zap.L().Debug("validate: taxonomy unavailable, skipping category check", zap.Error(err))
		return nil
	}
	if ok {
		return nil
	}
	return []model.Finding{{
		Rule:     "category_exists",
		Severity: model.SeverityError,
		Message:  "category does not exist in the taxonomy",
		Field:    "category",
		Actual:   rec.Category,
		Hint:     "use a category code from the cost category taxonomy",
	}}
}

// priceRangeRule enforces hard bounds and flags suspicious bands that
// still fall inside them.
type priceRangeRule struct {
	prices config.PriceRanges
}

func (priceRangeRule) Name() string { return "price_range" }

func (r priceRangeRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if rec.UnitCost == nil {
		return nil
	}
	cost := *rec.UnitCost

	var findings []model.Finding
	switch {
	case cost < r.prices.MinReasonable:
		findings = append(findings, model.Finding{
			Rule:     "price_range",
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("unit cost seems unusually low: $%v", cost),
			Field:    "unit_cost",
			Actual:   fmt.Sprintf("%v", cost),
			Expected: fmt.Sprintf(">= $%v", r.prices.MinReasonable),
			Hint:     "verify the price is correct or check units",
		})
	case cost > r.prices.MaxReasonable:
		findings = append(findings, model.Finding{
			Rule:     "price_range",
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("unit cost seems unreasonably high: $%v", cost),
			Field:    "unit_cost",
			Actual:   fmt.Sprintf("%v", cost),
			Expected: fmt.Sprintf("<= $%v", r.prices.MaxReasonable),
			Hint:     "verify the price or check for a data entry error",
		})
	}

	switch {
	case cost > r.prices.SuspiciousHigh:
		findings = append(findings, model.Finding{
			Rule:     "price_range",
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("price is unusually high and should be verified: $%v", cost),
			Field:    "unit_cost",
			Actual:   fmt.Sprintf("%v", cost),
			Hint:     "double-check the source before trusting this value",
		})
	case cost < r.prices.SuspiciousLow:
		findings = append(findings, model.Finding{
			Rule:     "price_range",
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("price is unusually low and should be verified: $%v", cost),
			Field:    "unit_cost",
			Actual:   fmt.Sprintf("%v", cost),
			Hint:     "verify units and source accuracy",
		})
	}

	return findings
}

// priceUnitRule requires a unit label whenever a price is present.
type priceUnitRule struct{}

func (priceUnitRule) Name() string { return "price_unit_consistency" }

func (priceUnitRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if rec.UnitCost == nil || rec.Unit != "" {
		return nil
	}
	return []model.Finding{{
		Rule:     "price_unit_consistency",
		Severity: model.SeverityError,
		Message:  "unit cost provided but unit is missing",
		Field:    "unit",
		Hint:     "specify the unit, e.g. each, per_sq_ft, per_gallon",
	}}
}

// plausibilityBands holds typical price ranges per category and unit.
var plausibilityBands = map[string]map[string][2]float64{
	"infrastructure": {
		"per_sq_ft": {5.0, 500.0},
		"each":      {100.0, 50000.0},
	},
	"operational_costs": {
		"per_pound":  {0.50, 100.0},
		"per_gallon": {1.0, 200.0},
	},
}

// pricePlausibilityRule flags prices outside typical bounds for the
// record's category and unit pair.
type pricePlausibilityRule struct{}

func (pricePlausibilityRule) Name() string { return "price_reasonableness" }

func (pricePlausibilityRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if rec.UnitCost == nil {
		return nil
	}
	units, ok := plausibilityBands[rec.Category]
	if !ok {
		return nil
	}
	band, ok := units[rec.Unit]
	if !ok {
		return nil
	}
	cost := *rec.UnitCost
	if cost >= band[0] && cost <= band[1] {
		return nil
	}
	return []model.Finding{{
		Rule:     "price_reasonableness",
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("price $%v/%s seems unusual for %s items", cost, rec.Unit, rec.Category),
		Field:    "unit_cost",
		Actual:   fmt.Sprintf("%v", cost),
		Expected: fmt.Sprintf("$%v-$%v/%s", band[0], band[1], rec.Unit),
	}}
}

// sourceRequiredRule blocks records with no citation at all.
type sourceRequiredRule struct{}

func (sourceRequiredRule) Name() string { return "source_required" }

func (sourceRequiredRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if len(rec.Citations) > 0 {
		return nil
	}
	return []model.Finding{{
		Rule:     "source_required",
		Severity: model.SeverityCritical,
		Message:  "no source information provided",
		Field:    "citations",
		Hint:     "add at least one source reference with URL and observation date",
	}}
}

var httpURLRE = regexp.MustCompile(`^https?://.+`)

// sourceURLRule checks every citation URL looks like an HTTP URL.
type sourceURLRule struct{}

func (sourceURLRule) Name() string { return "source_url_format" }

func (sourceURLRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	var findings []model.Finding
	for i, c := range rec.Citations {
		if c.SourceURL == "" || httpURLRE.MatchString(c.SourceURL) {
			continue
		}
		findings = append(findings, model.Finding{
			Rule:     "source_url_format",
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("source URL %d has invalid format", i+1),
			Field:    fmt.Sprintf("citations[%d].source_url", i),
			Actual:   c.SourceURL,
			Expected: "valid HTTP/HTTPS URL",
		})
	}
	return findings
}

// freshnessRule gates on citation observation-date age. The citation
// engine scores freshness softly; this rule enforces it hard.
type freshnessRule struct {
	windows config.FreshnessWindows
	now     func() time.Time
}

func (freshnessRule) Name() string { return "data_freshness" }

func (r freshnessRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	var findings []model.Finding
	for i, c := range rec.Citations {
		field := fmt.Sprintf("citations[%d].date_observed", i)

		if c.DateObserved == "" {
			findings = append(findings, model.Finding{
				Rule:     "data_freshness",
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("source %d missing observation date", i+1),
				Field:    field,
				Hint:     "record when the data was observed",
			})
			continue
		}

		observed, err := time.Parse("2006-01-02", c.DateObserved)
		if err != nil {
			findings = append(findings, model.Finding{
				Rule:     "data_freshness",
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("source %d has invalid date format", i+1),
				Field:    field,
				Actual:   c.DateObserved,
				Expected: "YYYY-MM-DD",
			})
			continue
		}

		days := int(r.now().Sub(observed).Hours() / 24)
		switch {
		case days > r.windows.CriticalAgeDays:
			findings = append(findings, model.Finding{
				Rule:     "data_freshness",
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("data is critically old (%d days)", days),
				Field:    field,
				Actual:   fmt.Sprintf("%d days old", days),
				Expected: fmt.Sprintf("< %d days", r.windows.CriticalAgeDays),
				Hint:     "data needs to be refreshed from the source",
			})
		case days > r.windows.MaxAgeDays:
			findings = append(findings, model.Finding{
				Rule:     "data_freshness",
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("data is too old (%d days)", days),
				Field:    field,
				Actual:   fmt.Sprintf("%d days old", days),
				Expected: fmt.Sprintf("< %d days", r.windows.MaxAgeDays),
			})
		case days > r.windows.PreferredAgeDays:
			findings = append(findings, model.Finding{
				Rule:     "data_freshness",
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("data is getting old (%d days)", days),
				Field:    field,
				Actual:   fmt.Sprintf("%d days old", days),
				Expected: fmt.Sprintf("< %d days preferred", r.windows.PreferredAgeDays),
			})
		}
	}
	return findings
}

// specificationsRule notes an empty spec map. Informational only.
type specificationsRule struct{}

func (specificationsRule) Name() string { return "specifications_completeness" }

func (specificationsRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	if len(rec.Specifications) > 0 {
		return nil
	}
	return []model.Finding{{
		Rule:     "specifications_completeness",
		Severity: model.SeverityInfo,
		Message:  "no specifications provided",
		Field:    "specifications",
		Hint:     "consider adding dimensions, materials, or other specs",
	}}
}

var productCodeRE = regexp.MustCompile(`^[A-Z0-9-_]+$`)

// productCodeRule checks citation product codes stay in the expected
// charset.
type productCodeRule struct{}

func (productCodeRule) Name() string { return "product_code_format" }

func (productCodeRule) Evaluate(_ context.Context, rec *model.CandidateRecord, _ Lookups) []model.Finding {
	for _, c := range rec.Citations {
		if c.ProductCode == "" || productCodeRE.MatchString(c.ProductCode) {
			continue
		}
		return []model.Finding{{
			Rule:     "product_code_format",
			Severity: model.SeverityWarning,
			Message:  "product code contains unexpected characters",
			Field:    "product_code",
			Actual:   c.ProductCode,
			Expected: "alphanumeric with hyphens/underscores",
			Hint:     "verify the product code with the supplier",
		}}
	}
	return nil
}
