package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemID_WithProductCode(t *testing.T) {
	assert.Equal(t, "FARMTEK_GT1220", ItemID("FarmTek", "Gothic Arch Greenhouse", "GT-1220"))
	assert.Equal(t, "FARMTEK_GT1220", ItemID("farmtek", "anything", "gt 1220"))
}

func TestItemID_WithoutProductCode(t *testing.T) {
	id := ItemID("GrowSpan", "Commercial Bench System 4x8", "")
	assert.True(t, strings.HasPrefix(id, "GROWSPAN_COMMERCIAL_BENCH_SY_"), id)

	parts := strings.Split(id, "_")
	assert.Len(t, parts[len(parts)-1], 6)
}

func TestItemID_Idempotent(t *testing.T) {
	a := ItemID("FarmTek", "Misting System Deluxe", "")
	b := ItemID("FarmTek", "Misting System Deluxe", "")
	assert.Equal(t, a, b)
}

func TestItemID_DistinctNames(t *testing.T) {
	a := ItemID("FarmTek", "Misting System Deluxe Model A Extra Long Name", "")
	b := ItemID("FarmTek", "Misting System Deluxe Model B Extra Long Name", "")
	// Truncated name portions collide; the content hash keeps ids unique.
	assert.NotEqual(t, a, b)
}
