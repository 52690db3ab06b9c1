package citation

import (
	"fmt"
	"os"
	"time"

	"github.com/terra35/vanillacost/internal/model"
)

// ValidateCitation checks a citation for completeness and correctness.
// Issues are human-readable strings; an empty list means valid. Unlike
// CreateCitation this never errors: it audits citations that already
// exist, including ones loaded from storage.
func (e *Engine) ValidateCitation(c *model.SourceCitation) (bool, []string) {
	var issues []string

	for _, name := range e.cfg.Mandatory {
		if citationField(c, name) == "" {
			issues = append(issues, fmt.Sprintf("missing required field: %s", name))
		}
	}

	if c.SourceURL != "" && !validURL(c.SourceURL) {
		issues = append(issues, fmt.Sprintf("invalid URL format: %s", c.SourceURL))
	}

	if c.DateObserved != "" {
		if _, err := time.Parse("2006-01-02", c.DateObserved); err != nil {
			issues = append(issues, fmt.Sprintf("invalid date format: %s (want YYYY-MM-DD)", c.DateObserved))
		}
	}

	if _, ok := e.cfg.Templates[c.Kind]; !ok {
		issues = append(issues, fmt.Sprintf("unknown citation kind: %s", c.Kind))
	}

	if c.EvidencePath != "" {
		if _, err := os.Stat(c.EvidencePath); err != nil {
			issues = append(issues, fmt.Sprintf("evidence file not found: %s", c.EvidencePath))
		}
	}

	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		issues = append(issues, fmt.Sprintf("confidence score %v outside [0.0, 1.0]", c.Confidence))
	}

	return len(issues) == 0, issues
}

// citationField resolves a mandatory-field name to its value.
func citationField(c *model.SourceCitation, name string) string {
	switch name {
	case "citation_kind":
		return c.Kind
	case "source_url":
		return c.SourceURL
	case "organization":
		return c.Organization
	case "date_observed":
		return c.DateObserved
	case "product_code":
		return c.ProductCode
	case "contact_person":
		return c.ContactPerson
	case "quote_number":
		return c.QuoteNumber
	case "document_title":
		return c.DocumentTitle
	case "evidence_path":
		return c.EvidencePath
	default:
		return ""
	}
}
