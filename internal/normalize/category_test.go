package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessCategory(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		cat    string
		subcat string
	}{
		{"Gothic Arch Greenhouse Kit", "", "infrastructure", "structures"},
		{"Rolling Bench 4x8", "steel platform", "infrastructure", "benching"},
		{"Circulation Fan 20in", "ventilation for greenhouses", "infrastructure", "climate_control"},
		{"Drip Irrigation Kit", "watering", "infrastructure", "irrigation"},
		{"LED Grow Light 600W", "", "infrastructure", "lighting"},
		{"Organic Fertilizer 50lb", "nutrient blend", "operational_costs", "growing_supplies"},
		{"Mystery Widget", "", "infrastructure", "structures"},
	}

	for _, tt := range tests {
		cat, sub := GuessCategory(tt.name, tt.desc)
		assert.Equal(t, tt.cat, cat, tt.name)
		assert.Equal(t, tt.subcat, sub, tt.name)
	}
}
