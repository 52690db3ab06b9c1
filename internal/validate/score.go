package validate

import (
	"math"
	"time"

	"github.com/terra35/vanillacost/internal/model"
)

// qualityScore computes the 0.0-1.0 quality score: a weighted sum over
// data-quality components minus penalties per finding. The weights and
// penalties are a regression contract.
func (e *Engine) qualityScore(rec *model.CandidateRecord, s *model.Summary) float64 {
	w := e.cfg.Weights
	score := 0.0

	if len(rec.Citations) > 0 {
		score += w.HasSource

		for _, c := range rec.Citations {
			if c.DateObserved == "" {
				continue
			}
			observed, err := time.Parse("2006-01-02", c.DateObserved)
			if err != nil {
				continue
			}
			days := int(e.now().Sub(observed).Hours() / 24)
			if days <= e.cfg.Freshness.PreferredAgeDays {
				score += w.RecentData
				break
			}
		}
	}

	if rec.ItemID != "" && rec.Name != "" && rec.Category != "" {
		score += w.CompleteFields
	}

	if rec.UnitCost != nil && *rec.UnitCost >= 0.01 && *rec.UnitCost <= 100000 {
		score += w.ReasonablePrice
	}

	for _, c := range rec.Citations {
		if c.ProductCode != "" {
			score += w.HasProductCode
			break
		}
	}

	if len(rec.Specifications) > 0 {
		score += w.HasSpecifications
	}

	score -= 0.05 * float64(s.Errors)
	score -= 0.10 * float64(s.Critical)

	return math.Min(1.0, math.Max(0.0, score))
}

// confidenceTier maps a score and issue counts onto a discrete tier.
// First match wins: critical findings and error pileups force LOW
// regardless of score.
func (e *Engine) confidenceTier(score float64, critical, errors int) model.ConfidenceTier {
	t := e.cfg.Thresholds
	switch {
	case critical > 0:
		return model.TierLow
	case errors > 2:
		return model.TierLow
	case score >= t.Excellent:
		return model.TierVerified
	case score >= t.Good:
		return model.TierHigh
	case score >= t.Acceptable:
		return model.TierMedium
	default:
		return model.TierLow
	}
}
