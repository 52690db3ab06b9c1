package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDimensions_Compound(t *testing.T) {
	dims := ParseDimensions("Gothic greenhouse 12 x 20 x 8 ft")
	assert.Equal(t, 12.0, dims["length"])
	assert.Equal(t, 20.0, dims["width"])
	assert.Equal(t, 8.0, dims["height"])
}

func TestParseDimensions_Pair(t *testing.T) {
	dims := ParseDimensions("bench top 4×8")
	assert.Equal(t, 4.0, dims["length"])
	assert.Equal(t, 8.0, dims["width"])
	_, ok := dims["height"]
	assert.False(t, ok)
}

func TestParseDimensions_AxisPhrases(t *testing.T) {
	dims := ParseDimensions("height: 6.5 ft, depth: 2 ft")
	assert.Equal(t, 6.5, dims["height"])
	assert.Equal(t, 2.0, dims["depth"])
}

func TestParseDimensions_CompoundPrecedence(t *testing.T) {
	// The compound triple wins over a conflicting axis phrase.
	dims := ParseDimensions("10 x 12 x 9, height: 99")
	assert.Equal(t, 9.0, dims["height"])
}

func TestParseDimensions_Empty(t *testing.T) {
	assert.Empty(t, ParseDimensions(""))
	assert.Empty(t, ParseDimensions("no dimensions here"))
}
