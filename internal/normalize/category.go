package normalize

import "strings"

type categoryKeywords struct {
	category    string
	subcategory string
	keywords    []string
}

// Ordered so keyword-score ties resolve deterministically.
var categoryTable = []categoryKeywords{
	{"infrastructure", "structures", []string{"greenhouse", "frame", "structure", "kit", "building"}},
	{"infrastructure", "benching", []string{"bench", "table", "rack", "stand", "platform"}},
	{"infrastructure", "climate_control", []string{"heater", "cooler", "ventilation", "fan", "hvac", "temperature"}},
	{"infrastructure", "irrigation", []string{"irrigation", "watering", "mist", "drip", "spray"}},
	{"infrastructure", "lighting", []string{"light", "lamp", "led", "fluorescent", "grow light"}},
	{"operational_costs", "growing_supplies", []string{"fertilizer", "nutrient", "soil", "substrate", "media"}},
	{"operational_costs", "raw_materials", []string{"chemical", "solution", "additive"}},
}

// GuessCategory assigns a best-effort category/subcategory from keyword
// hits in the product name and description. Falls back to
// infrastructure/structures when nothing matches. The result is a guess;
// callers resolve it against the taxonomy before persisting.
func GuessCategory(productName, description string) (string, string) {
	text := strings.ToLower(productName + " " + description)

	best := -1
	bestScore := 0
	for i, ck := range categoryTable {
		score := 0
		for _, kw := range ck.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return "infrastructure", "structures"
	}
	return categoryTable[best].category, categoryTable[best].subcategory
}
