package citation

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/terra35/vanillacost/internal/model"
)

// Score derives the confidence score for a citation of the given kind.
// The formula is a regression contract: base by tier, then additive
// adjustments for URL validity, official domain, freshness, product
// code, archived evidence, quote contact, and extracted payload, clamped
// to [0,1] and rounded to two decimals. Deterministic for fixed inputs.
func (e *Engine) Score(kind string, attrs Attributes) float64 {
	score := e.baseTier(kind)

	if attrs.SourceURL != "" {
		if validURL(attrs.SourceURL) {
			score += 0.05
		}
		if officialDomain(attrs.SourceURL, attrs.Organization) {
			score += 0.10
		}
	}

	if attrs.DateObserved != "" {
		observed, err := time.Parse("2006-01-02", attrs.DateObserved)
		if err != nil {
			score -= 0.05
		} else {
			switch days := int(e.now().Sub(observed).Hours() / 24); {
			case days <= 30:
				score += 0.15
			case days <= 90:
				score += 0.10
			case days <= 365:
				score += 0.05
			default:
				score -= 0.10
			}
		}
	}

	if attrs.ProductCode != "" {
		score += 0.10
	}
	if attrs.EvidencePath != "" {
		score += 0.05
	}
	if kind == model.KindDirectQuote && attrs.ContactPerson != "" {
		score += 0.10
	}
	if len(attrs.Extracted) > 0 {
		score += 0.05
	}

	return math.Round(math.Min(1.0, math.Max(0.0, score))*100) / 100
}

// Rescore re-derives confidence from a stored citation's attributes.
// Confidence is a derived value; freshness decays, so persisted scores
// are never trusted as-is.
func (e *Engine) Rescore(c *model.SourceCitation) float64 {
	return e.Score(c.Kind, Attributes{
		SourceURL:     c.SourceURL,
		Organization:  c.Organization,
		DateObserved:  c.DateObserved,
		ProductCode:   c.ProductCode,
		ContactPerson: c.ContactPerson,
		EvidencePath:  c.EvidencePath,
		Extracted:     c.Extracted,
	})
}

func (e *Engine) baseTier(kind string) float64 {
	tpl, ok := e.cfg.Templates[kind]
	if !ok {
		return 0.5
	}
	switch tpl.Tier {
	case 1:
		return 0.8
	case 2:
		return 0.6
	case 3:
		return 0.4
	default:
		return 0.5
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

var nonLettersRE = regexp.MustCompile(`[^a-zA-Z]`)

// officialDomain reports whether the URL's host looks like the
// organization's own domain. Letters-only substring containment, a soft
// signal only; false positives on short names are accepted.
func officialDomain(raw, organization string) bool {
	if raw == "" || organization == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	cleaned := nonLettersRE.ReplaceAllString(strings.ToLower(organization), "")
	if cleaned == "" {
		return false
	}
	host := strings.NewReplacer(".", "", "-", "").Replace(strings.ToLower(u.Host))
	return strings.Contains(host, cleaned)
}
