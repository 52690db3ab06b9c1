package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/terra35/vanillacost/internal/model"
)

func sampleRecords() []model.CandidateRecord {
	cost := 2499.00
	return []model.CandidateRecord{
		{
			ItemID:   "FARMTEK_GT1220",
			Name:     "Gothic Arch Greenhouse Kit",
			UnitCost: &cost,
			Unit:     "each",
			Citations: []model.SourceCitation{
				{
					Kind:         model.KindSupplierWebsite,
					SourceURL:    "https://www.farmtek.com/p/gt-1220",
					Organization: "FarmTek",
					DateObserved: "2026-08-15",
					ProductCode:  "GT-1220",
					Verification: model.VerificationPending,
					Confidence:   0.95,
					Formatted:    `FarmTek. "Gothic Arch Greenhouse Kit." Accessed August 15, 2026.`,
				},
				{
					Kind:         model.KindComparableProduct,
					Organization: "Growers Supply",
					DateObserved: "2026-08-10",
					Verification: model.VerificationPending,
					Confidence:   0.55,
				},
			},
		},
		{ItemID: "FARMTEK_NOCITE"},
	}
}

func TestFlatten_OneRowPerCitation(t *testing.T) {
	rows := Flatten(sampleRecords())
	require.Len(t, rows, 2)
	assert.Equal(t, "FARMTEK_GT1220", rows[0].ItemID)
	assert.Equal(t, model.KindComparableProduct, rows[1].Citation.Kind)
}

func TestWriteCitations_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.csv")
	require.NoError(t, WriteCitations(path, Flatten(sampleRecords())))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 citations

	assert.Equal(t, header, records[0])
	assert.Equal(t, "FARMTEK_GT1220", records[1][0])
	assert.Equal(t, "0.95", records[1][6])
	assert.Equal(t, "supplier_website", records[1][1])
}

func TestWriteCitations_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.xlsx")
	require.NoError(t, WriteCitations(path, Flatten(sampleRecords())))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "item_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "FARMTEK_GT1220", sheet.Rows[1].Cells[0].String())
}

func TestWriteCitations_UnsupportedFormat(t *testing.T) {
	err := WriteCitations(filepath.Join(t.TempDir(), "citations.txt"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
