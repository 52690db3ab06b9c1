// Package citation builds, scores, and validates standardized source
// attributions. Templates and trust tiers come from injected
// configuration so new citation kinds need no code changes.
package citation

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/terra35/vanillacost/internal/model"
)

// Template defines how one citation kind renders and what it requires.
// Tier drives the base confidence score: 1 is a primary source, 2 a
// secondary source, 3 a tertiary source needing extra verification.
type Template struct {
	Format   string   `yaml:"format"`
	Required []string `yaml:"required"`
	Tier     int      `yaml:"tier"`
}

// Config is the citation format configuration. Mandatory lists the
// fields every citation must carry regardless of kind.
type Config struct {
	Templates map[string]Template `yaml:"templates"`
	Mandatory []string            `yaml:"mandatory"`
}

// LoadConfig reads citation configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "citation: read config %s", path)
	}

	// The YAML has a top-level "citation_format" key
	var wrapper struct {
		CitationFormat Config `yaml:"citation_format"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "citation: parse config")
	}

	cfg := &wrapper.CitationFormat
	if len(cfg.Templates) == 0 {
		return nil, eris.Errorf("citation: config %s defines no templates", path)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in citation format table, used when no
// config file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Templates: map[string]Template{
			model.KindSupplierWebsite: {
				Format:   `{organization}. "{product_name}." {website_name}, accessed {date_observed}. {source_url}`,
				Required: []string{"organization", "source_url", "date_observed"},
				Tier:     1,
			},
			model.KindDirectQuote: {
				Format:   `{contact_person}, {organization}. Price quote #{quote_number}. {date_observed}. Personal communication.`,
				Required: []string{"organization", "contact_person", "quote_number", "date_observed"},
				Tier:     1,
			},
			model.KindIndustryReport: {
				Format:   `{organization}. "{document_title}." Accessed {date_observed}. {source_url}`,
				Required: []string{"organization", "document_title", "date_observed"},
				Tier:     2,
			},
			model.KindGovernmentDatabase: {
				Format:   `{organization}. "{document_title}." Accessed {date_observed}. {source_url}`,
				Required: []string{"organization", "source_url", "date_observed"},
				Tier:     2,
			},
			model.KindComparableProduct: {
				Format:   `Comparable product pricing from {organization}, observed {date_observed}. {source_url}`,
				Required: []string{"organization", "date_observed"},
				Tier:     3,
			},
			model.KindHistoricalEstimate: {
				Format:   `Historical estimate from {organization}, {date_observed}. {notes}`,
				Required: []string{"organization", "date_observed"},
				Tier:     3,
			},
		},
		Mandatory: []string{"citation_kind", "source_url", "organization", "date_observed"},
	}
}

// Attributes is the bag of source information a collector supplies when
// creating a citation. DateObserved uses YYYY-MM-DD; an empty value
// defaults to today for kinds that do not require it.
type Attributes struct {
	SourceURL     string
	Organization  string
	ProductName   string
	WebsiteName   string
	DateObserved  string
	ProductCode   string
	ContactPerson string
	QuoteNumber   string
	DocumentTitle string
	EvidencePath  string
	Extracted     map[string]string
	Notes         string
}

// fields maps attribute values to the placeholder names used in
// templates and required-field lists.
func (a Attributes) fields() map[string]string {
	return map[string]string{
		"source_url":     a.SourceURL,
		"organization":   a.Organization,
		"product_name":   a.ProductName,
		"website_name":   a.WebsiteName,
		"date_observed":  a.DateObserved,
		"product_code":   a.ProductCode,
		"contact_person": a.ContactPerson,
		"quote_number":   a.QuoteNumber,
		"document_title": a.DocumentTitle,
		"evidence_path":  a.EvidencePath,
		"notes":          a.Notes,
	}
}

// Engine renders citation strings and derives confidence scores.
type Engine struct {
	cfg *Config
	now func() time.Time
}

// New creates an Engine. A nil cfg uses the built-in defaults.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// CreateCitation builds a citation of the given kind. An unknown kind or
// a missing required field is a caller error: the collector supplied an
// incomplete payload.
func (e *Engine) CreateCitation(kind string, attrs Attributes) (*model.SourceCitation, error) {
	tpl, ok := e.cfg.Templates[kind]
	if !ok {
		return nil, eris.Errorf("citation: unknown kind %q", kind)
	}

	fields := attrs.fields()
	var missing []string
	for _, name := range tpl.Required {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("citation: missing required fields for %s: %s", kind, strings.Join(missing, ", "))
	}

	// Score before defaulting the date: an unstated observation date
	// earns no freshness credit.
	confidence := e.Score(kind, attrs)

	if attrs.DateObserved == "" {
		attrs.DateObserved = e.now().Format("2006-01-02")
	}

	return &model.SourceCitation{
		Kind:          kind,
		Formatted:     renderTemplate(tpl.Format, attrs.fields()),
		SourceURL:     attrs.SourceURL,
		Organization:  attrs.Organization,
		DateObserved:  attrs.DateObserved,
		ProductCode:   attrs.ProductCode,
		ContactPerson: attrs.ContactPerson,
		QuoteNumber:   attrs.QuoteNumber,
		DocumentTitle: attrs.DocumentTitle,
		EvidencePath:  attrs.EvidencePath,
		Extracted:     attrs.Extracted,
		Verification:  model.VerificationPending,
		Confidence:    confidence,
		Notes:         attrs.Notes,
	}, nil
}

var (
	emptyQuotesRE = regexp.MustCompile(`\s*""\s*`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
)

// renderTemplate substitutes {name} placeholders with field values.
// Dates render long-form. Placeholders for empty optional fields vanish
// and leftover punctuation artifacts are tidied up.
func renderTemplate(format string, fields map[string]string) string {
	if raw := fields["date_observed"]; raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			fields["date_observed"] = d.Format("January 2, 2006")
		}
	}

	out := format
	for name, value := range fields {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	out = emptyQuotesRE.ReplaceAllString(out, " ")
	out = whitespaceRE.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
