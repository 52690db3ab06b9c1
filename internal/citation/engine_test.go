package citation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra35/vanillacost/internal/model"
)

func fixedEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e := New(cfg)
	e.now = func() time.Time {
		return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func TestCreateCitation_SupplierWebsite(t *testing.T) {
	e := fixedEngine(t, nil)

	c, err := e.CreateCitation(model.KindSupplierWebsite, Attributes{
		Organization: "FarmTek",
		ProductName:  "Gothic Arch Greenhouse Kit 12x20",
		WebsiteName:  "FarmTek.com",
		SourceURL:    "https://www.farmtek.com/product/gothic-arch-greenhouse-gt-1220",
		DateObserved: "2026-08-15",
		ProductCode:  "GT-1220",
	})
	require.NoError(t, err)

	assert.Equal(t, model.KindSupplierWebsite, c.Kind)
	assert.Equal(t, model.VerificationPending, c.Verification)
	assert.Equal(t,
		`FarmTek. "Gothic Arch Greenhouse Kit 12x20." FarmTek.com, accessed August 15, 2026. https://www.farmtek.com/product/gothic-arch-greenhouse-gt-1220`,
		c.Formatted)
}

func TestCreateCitation_OptionalFieldsVanish(t *testing.T) {
	e := fixedEngine(t, nil)

	c, err := e.CreateCitation(model.KindSupplierWebsite, Attributes{
		Organization: "FarmTek",
		SourceURL:    "https://farmtek.com/x",
		DateObserved: "2026-08-15",
	})
	require.NoError(t, err)

	// No product or website name: the rendered string must not carry
	// empty quotes or doubled spaces.
	assert.NotContains(t, c.Formatted, `""`)
	assert.NotContains(t, c.Formatted, "  ")
	assert.Contains(t, c.Formatted, "FarmTek")
	assert.Contains(t, c.Formatted, "August 15, 2026")
}

func TestCreateCitation_MissingRequiredFields(t *testing.T) {
	e := fixedEngine(t, nil)

	_, err := e.CreateCitation(model.KindDirectQuote, Attributes{
		Organization: "Growers Supply",
		DateObserved: "2026-08-01",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact_person")
	assert.Contains(t, err.Error(), "quote_number")
}

func TestCreateCitation_UnknownKind(t *testing.T) {
	e := fixedEngine(t, nil)

	_, err := e.CreateCitation("carrier_pigeon", Attributes{Organization: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestCreateCitation_RequiredDateMissing(t *testing.T) {
	e := fixedEngine(t, nil)

	c, err := e.CreateCitation(model.KindComparableProduct, Attributes{
		Organization: "Greenhouse Megastore",
	})
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "date_observed")
}

func TestCreateCitation_DirectQuote(t *testing.T) {
	e := fixedEngine(t, nil)

	c, err := e.CreateCitation(model.KindDirectQuote, Attributes{
		Organization:  "Growers Supply",
		ContactPerson: "J. Alvarez",
		QuoteNumber:   "Q-2031",
		DateObserved:  "2026-08-20",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"J. Alvarez, Growers Supply. Price quote #Q-2031. August 20, 2026. Personal communication.",
		c.Formatted)
}

func TestCreateCitation_DefaultedDateEarnsNoFreshnessCredit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Templates["field_visit"] = Template{
		Format:   `Observed on site at {organization}, {date_observed}.`,
		Required: []string{"organization"},
		Tier:     3,
	}
	e := fixedEngine(t, cfg)

	c, err := e.CreateCitation("field_visit", Attributes{
		Organization: "Growers Supply",
	})
	require.NoError(t, err)

	// The stored date defaults to today, but scoring ran without it:
	// base 0.4 only, not 0.55.
	assert.Equal(t, "2026-08-30", c.DateObserved)
	assert.InDelta(t, 0.40, c.Confidence, 1e-9)
}

func TestLoadConfig(t *testing.T) {
	yaml := `
citation_format:
  templates:
    trade_show:
      format: '{organization} booth pricing, {date_observed}.'
      required: [organization, date_observed]
      tier: 2
  mandatory: [citation_kind, organization]
`
	dir := t.TempDir()
	path := filepath.Join(dir, "citations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	tpl, ok := cfg.Templates["trade_show"]
	require.True(t, ok)
	assert.Equal(t, 2, tpl.Tier)
	assert.Equal(t, []string{"organization", "date_observed"}, tpl.Required)
	assert.Equal(t, []string{"citation_kind", "organization"}, cfg.Mandatory)

	// A configured kind works end to end without code changes.
	e := fixedEngine(t, cfg)
	c, err := e.CreateCitation("trade_show", Attributes{
		Organization: "Cultivate",
		DateObserved: "2026-08-14",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cultivate booth pricing, August 14, 2026.", c.Formatted)
	assert.InDelta(t, 0.75, c.Confidence, 1e-9) // tier-2 base 0.6 + freshness 0.15
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/citations.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_NoTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "citations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("citation_format:\n  mandatory: [citation_kind]\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
