package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Gothic Arch Kit", CleanText("  Gothic   Arch \n Kit  "))
	assert.Equal(t, `Smith & Sons "Premium"`, CleanText("Smith &amp; Sons &quot;Premium&quot;"))
	assert.Equal(t, "", CleanText(""))
}

func TestParseSpecifications(t *testing.T) {
	text := "Covering: 6mm twin-wall polycarbonate\nFrame = galvanized steel\nshort\n"
	specs := ParseSpecifications(text)

	assert.Equal(t, "6mm twin-wall polycarbonate", specs["Covering"])
	assert.Equal(t, "galvanized steel", specs["Frame"])
	assert.NotContains(t, specs, "short")
}

func TestParseSpecifications_SkipsNoise(t *testing.T) {
	long := strings.Repeat("x", 60)
	specs := ParseSpecifications(long + ": value")
	assert.Empty(t, specs)
}
