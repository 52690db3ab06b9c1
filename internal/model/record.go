package model

import "time"

// ConfidenceTier is the discrete trust label assigned to a record after
// validation. Records are persisted with their tier; only validation may
// change it.
type ConfidenceTier string

const (
	TierLow      ConfidenceTier = "LOW"
	TierMedium   ConfidenceTier = "MEDIUM"
	TierHigh     ConfidenceTier = "HIGH"
	TierVerified ConfidenceTier = "VERIFIED"
)

// CandidateRecord is an in-flight, not-yet-persisted cost observation
// assembled by a collector. A record with a unit cost must carry a unit
// label, and must have at least one citation before it may be persisted.
type CandidateRecord struct {
	ItemID         string            `json:"item_id"`
	Name           string            `json:"item_name"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	UnitCost       *float64          `json:"unit_cost,omitempty"`
	Unit           string            `json:"unit,omitempty"`
	Citations      []SourceCitation  `json:"citations"`
	Confidence     ConfidenceTier    `json:"confidence_tier,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CollectedAt    time.Time         `json:"collected_at"`
}

// HasPrice reports whether the record carries a unit cost.
func (r *CandidateRecord) HasPrice() bool {
	return r.UnitCost != nil
}

// AttachCitation appends a citation to the record.
func (r *CandidateRecord) AttachCitation(c SourceCitation) {
	r.Citations = append(r.Citations, c)
}
