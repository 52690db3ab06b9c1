package model

// Severity grades a validation finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Finding is one rule's verdict on one record.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// Summary aggregates all findings for one record.
type Summary struct {
	ItemID      string         `json:"item_id"`
	TotalChecks int            `json:"total_checks"`
	Passed      int            `json:"passed"`
	Warnings    int            `json:"warnings"`
	Errors      int            `json:"errors"`
	Critical    int            `json:"critical"`
	Findings    []Finding      `json:"findings"`
	Score       float64        `json:"overall_score"`
	Confidence  ConfidenceTier `json:"confidence_tier"`
}

// IsValid reports whether the record passed validation. Errors and
// warnings lower the score and tier but do not block persistence; only
// critical findings do.
func (s *Summary) IsValid() bool {
	return s.Critical == 0
}

// Count returns the number of findings at the given severity.
func (s *Summary) Count(sev Severity) int {
	n := 0
	for _, f := range s.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
