package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/terra35/vanillacost/internal/citation"
	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/normalize"
)

// researchPayload is the on-disk format for manual research files: data
// gathered from reports, quotes, and phone calls rather than scraped.
type researchPayload struct {
	Supplier string           `yaml:"supplier" json:"supplier"`
	Records  []researchRecord `yaml:"records" json:"records"`
}

type researchRecord struct {
	ItemName       string            `yaml:"item_name" json:"item_name"`
	ProductCode    string            `yaml:"product_code" json:"product_code"`
	Category       string            `yaml:"category" json:"category"`
	Subcategory    string            `yaml:"subcategory" json:"subcategory"`
	UnitCost       *float64          `yaml:"unit_cost" json:"unit_cost"`
	Unit           string            `yaml:"unit" json:"unit"`
	Specifications map[string]string `yaml:"specifications" json:"specifications"`
	Notes          string            `yaml:"notes" json:"notes"`
	Source         researchSource    `yaml:"source" json:"source"`
}

type researchSource struct {
	Kind          string `yaml:"kind" json:"kind"`
	URL           string `yaml:"url" json:"url"`
	Organization  string `yaml:"organization" json:"organization"`
	DateObserved  string `yaml:"date_observed" json:"date_observed"`
	ContactPerson string `yaml:"contact_person" json:"contact_person"`
	QuoteNumber   string `yaml:"quote_number" json:"quote_number"`
	DocumentTitle string `yaml:"document_title" json:"document_title"`
	EvidencePath  string `yaml:"evidence_path" json:"evidence_path"`
	Notes         string `yaml:"notes" json:"notes"`
}

// FileCollector reads candidate records from research payload files in a
// directory. Each file is one supplier payload, YAML or JSON.
type FileCollector struct {
	dir      string
	supplier string
}

// NewFileCollector collects from research files under dir. The supplier
// label is cosmetic when payloads span multiple suppliers.
func NewFileCollector(dir, supplier string) *FileCollector {
	if supplier == "" {
		supplier = "manual-research"
	}
	return &FileCollector{dir: dir, supplier: supplier}
}

func (f *FileCollector) Name() string     { return "file" }
func (f *FileCollector) Supplier() string { return f.supplier }

// Collect loads every payload file in the directory. A malformed file is
// skipped with a log entry; it never aborts the other files.
func (f *FileCollector) Collect(ctx context.Context, cc *Context) ([]*model.CandidateRecord, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "file collector: read dir %s", f.dir)
	}

	var records []*model.CandidateRecord
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "file collector: canceled")
		}

		path := filepath.Join(f.dir, entry.Name())
		payload, err := loadPayload(path)
		if err != nil {
			cc.Log.Warn("skipping unreadable research file",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}

		recs := f.buildRecords(cc, payload, path)
		cc.Log.Info("research file loaded",
			zap.String("path", path),
			zap.Int("records", len(recs)),
		)
		records = append(records, recs...)
	}
	return records, nil
}

func loadPayload(path string) (*researchPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read payload")
	}

	var payload researchPayload
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &payload)
	} else {
		err = yaml.Unmarshal(data, &payload)
	}
	if err != nil {
		return nil, eris.Wrap(err, "parse payload")
	}
	if payload.Supplier == "" {
		return nil, eris.New("payload missing supplier")
	}
	return &payload, nil
}

// buildRecords converts payload entries into candidate records with
// citations built by the citation engine. Entries whose citation cannot
// be built are skipped; validation will catch the rest.
func (f *FileCollector) buildRecords(cc *Context, payload *researchPayload, path string) []*model.CandidateRecord {
	var out []*model.CandidateRecord
	for _, rr := range payload.Records {
		rec := &model.CandidateRecord{
			ItemID:         normalize.ItemID(payload.Supplier, rr.ItemName, rr.ProductCode),
			Name:           normalize.CleanText(rr.ItemName),
			Category:       rr.Category,
			Subcategory:    rr.Subcategory,
			Specifications: rr.Specifications,
			UnitCost:       rr.UnitCost,
			Unit:           rr.Unit,
			Notes:          rr.Notes,
			CollectedAt:    time.Now(),
		}
		if rec.Category == "" {
			rec.Category, rec.Subcategory = normalize.GuessCategory(rr.ItemName, rr.Notes)
		}

		kind := rr.Source.Kind
		if kind == "" {
			kind = model.KindSupplierWebsite
		}
		cit, err := cc.Citations.CreateCitation(kind, citation.Attributes{
			SourceURL:     rr.Source.URL,
			Organization:  rr.Source.Organization,
			ProductName:   rr.ItemName,
			DateObserved:  rr.Source.DateObserved,
			ProductCode:   rr.ProductCode,
			ContactPerson: rr.Source.ContactPerson,
			QuoteNumber:   rr.Source.QuoteNumber,
			DocumentTitle: rr.Source.DocumentTitle,
			EvidencePath:  rr.Source.EvidencePath,
			Notes:         rr.Source.Notes,
		})
		if err != nil {
			cc.Log.Warn("skipping record with unbuildable citation",
				zap.String("path", path),
				zap.String("item", rr.ItemName),
				zap.Error(err),
			)
			continue
		}
		rec.AttachCitation(*cit)
		out = append(out, rec)
	}
	return out
}
