package collector

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/terra35/vanillacost/internal/citation"
	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/normalize"
)

var (
	priceTokenRE   = regexp.MustCompile(`\$\s*\d[\d,.]*`)
	productCodeRE  = regexp.MustCompile(`(?i)(?:item|sku|model|product)\s*#?\s*:?\s*([A-Z0-9][A-Z0-9-_]{2,})`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// CatalogCollector fetches supplier product pages and extracts one
// candidate record per page. Extraction is best effort; pages that yield
// no name or price become skipped records, not session failures.
type CatalogCollector struct {
	supplier     string
	organization string
	urls         []string
}

// NewCatalogCollector collects the given product page URLs for one
// supplier. The organization is used for citation attribution.
func NewCatalogCollector(supplier, organization string, urls []string) *CatalogCollector {
	return &CatalogCollector{supplier: supplier, organization: organization, urls: urls}
}

func (c *CatalogCollector) Name() string     { return "catalog" }
func (c *CatalogCollector) Supplier() string { return c.supplier }

func (c *CatalogCollector) Collect(ctx context.Context, cc *Context) ([]*model.CandidateRecord, error) {
	if cc.Fetcher == nil {
		return nil, eris.New("catalog collector: fetcher not configured")
	}

	var records []*model.CandidateRecord
	for _, pageURL := range c.urls {
		resp, err := cc.Fetcher.Fetch(ctx, pageURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "catalog collector: canceled")
			}
			// Permanent failures, robots denials and retry exhaustion
			// are all per-page conditions.
			cc.Log.Warn("page fetch failed, skipping",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}

		rec, err := c.extractRecord(cc, resp.URL, resp.Body)
		if err != nil {
			cc.Log.Warn("page yielded no record",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// extractRecord pulls a product record out of one page.
func (c *CatalogCollector) extractRecord(cc *Context, pageURL, body string) (*model.CandidateRecord, error) {
	page, err := parsePage(body)
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}
	if page.title == "" {
		return nil, eris.New("no product name found")
	}

	name := normalize.CleanText(page.title)
	code := extractProductCode(page.text)
	unitCost, priceOK := extractPrice(page.text)

	// Explicit spec lines win over parsed dimensions for the same key.
	specs := normalize.ParseSpecifications(page.text)
	for axis, v := range normalize.ParseDimensions(page.text) {
		if _, ok := specs[axis]; !ok {
			specs[axis] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	rec := &model.CandidateRecord{
		ItemID:         normalize.ItemID(c.supplier, name, code),
		Name:           name,
		Specifications: specs,
		Unit:           normalize.DetectUnit(page.text),
		CollectedAt:    time.Now(),
	}
	rec.Category, rec.Subcategory = normalize.GuessCategory(name, page.text)
	if priceOK {
		rec.UnitCost = &unitCost
	}

	extracted := map[string]string{"page_title": page.title}
	if priceOK {
		extracted["price_text"] = priceTokenRE.FindString(page.text)
	}

	cit, err := cc.Citations.CreateCitation(model.KindSupplierWebsite, citation.Attributes{
		SourceURL:    pageURL,
		Organization: c.organization,
		ProductName:  name,
		WebsiteName:  siteName(pageURL),
		DateObserved: rec.CollectedAt.Format("2006-01-02"),
		ProductCode:  code,
		Extracted:    extracted,
	})
	if err != nil {
		return nil, eris.Wrap(err, "build citation")
	}
	rec.AttachCitation(*cit)
	return rec, nil
}

type parsedPage struct {
	title string
	text  string
}

// parsePage walks the HTML tree once, keeping the first title-ish
// element and the concatenated visible text.
func parsePage(body string) (*parsedPage, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := &parsedPage{}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "h1", "title":
				if page.title == "" {
					page.title = strings.TrimSpace(nodeText(n))
				}
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	page.text = whitespaceRuns.ReplaceAllString(sb.String(), " ")
	return page, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func extractPrice(text string) (float64, bool) {
	token := priceTokenRE.FindString(text)
	if token == "" {
		return 0, false
	}
	return normalize.ParsePrice(token)
}

func siteName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func extractProductCode(text string) string {
	m := productCodeRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
