// Package export writes collected citations to CSV or XLSX for manual
// review. One row per citation, flattened with its record's identity.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/terra35/vanillacost/internal/model"
)

var header = []string{
	"item_id", "citation_kind", "organization", "source_url",
	"date_observed", "product_code", "confidence_score",
	"verification_status", "citation_formatted",
}

// Row is one flattened citation.
type Row struct {
	ItemID   string
	Citation model.SourceCitation
}

// Flatten expands records into one row per citation.
func Flatten(records []model.CandidateRecord) []Row {
	var rows []Row
	for _, rec := range records {
		for _, c := range rec.Citations {
			rows = append(rows, Row{ItemID: rec.ItemID, Citation: c})
		}
	}
	return rows
}

// WriteCitations writes rows to path, picking the format from the file
// extension (.csv or .xlsx).
func WriteCitations(path string, rows []Row) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, rows)
	case ".xlsx":
		return writeXLSX(path, rows)
	default:
		return eris.Errorf("export: unsupported format %q, want .csv or .xlsx", filepath.Ext(path))
	}
}

func (r Row) strings() []string {
	c := r.Citation
	return []string{
		r.ItemID, c.Kind, c.Organization, c.SourceURL,
		c.DateObserved, c.ProductCode, fmt.Sprintf("%.2f", c.Confidence),
		c.Verification, c.Formatted,
	}
}

func writeCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, row := range rows {
		if err := w.Write(row.strings()); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return f.Close()
}

func writeXLSX(path string, rows []Row) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Citations")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, name := range header {
		hr.AddCell().SetString(name)
	}
	for _, row := range rows {
		xr := sheet.AddRow()
		cells := row.strings()
		for i, v := range cells {
			cell := xr.AddCell()
			if header[i] == "confidence_score" {
				cell.SetFloatWithFormat(row.Citation.Confidence, "0.00")
				continue
			}
			cell.SetString(v)
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
