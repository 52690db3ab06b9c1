package model

// Citation kinds recognized by the default template configuration. The
// engine treats kinds as open-ended strings so new kinds can be added via
// configuration without code changes; these constants cover the built-ins.
const (
	KindSupplierWebsite    = "supplier_website"
	KindDirectQuote        = "direct_quote"
	KindIndustryReport     = "industry_report"
	KindGovernmentDatabase = "government_database"
	KindComparableProduct  = "comparable_product"
	KindHistoricalEstimate = "historical_estimate"
)

// Verification states for a citation.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
)

// SourceCitation attributes a price or spec fact to an origin. Confidence
// is always derived by the citation engine from the kind's tier plus
// quality adjustments; it is never supplied by callers.
type SourceCitation struct {
	Kind          string            `json:"citation_kind"`
	Formatted     string            `json:"citation_formatted,omitempty"`
	SourceURL     string            `json:"source_url,omitempty"`
	Organization  string            `json:"organization,omitempty"`
	DateObserved  string            `json:"date_observed,omitempty"`
	ProductCode   string            `json:"product_code,omitempty"`
	ContactPerson string            `json:"contact_person,omitempty"`
	QuoteNumber   string            `json:"quote_number,omitempty"`
	DocumentTitle string            `json:"document_title,omitempty"`
	EvidencePath  string            `json:"evidence_path,omitempty"`
	Extracted     map[string]string `json:"data_extracted,omitempty"`
	Verification  string            `json:"verification_status"`
	Confidence    float64           `json:"confidence_score"`
	Notes         string            `json:"notes,omitempty"`
}
