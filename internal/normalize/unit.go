package normalize

import "regexp"

// UnitEach is the fallback unit when no phrase matches.
const UnitEach = "each"

type unitPattern struct {
	unit     string
	patterns []*regexp.Regexp
}

// Ordered: first match wins, so more specific phrases come before the
// catch-all "each" patterns.
var unitPatterns = []unitPattern{
	{"per_sq_ft", compileAll(`per\s+sq\.?\s*ft`, `/\s*sq\.?\s*ft`, `square\s+foot`)},
	{"per_foot", compileAll(`per\s+f(?:oo)?t`, `/\s*f(?:oo)?t`, `linear\s+foot`)},
	{"per_gallon", compileAll(`per\s+gal(?:lon)?`, `/\s*gal(?:lon)?`)},
	{"per_pound", compileAll(`per\s+lb`, `per\s+pound`, `/\s*lb`, `/\s*pound`)},
	{"per_kg", compileAll(`per\s+kg`, `per\s+kilogram`, `/\s*kg`)},
	{"per_liter", compileAll(`per\s+l(?:iter)?\b`, `/\s*l(?:iter)?\b`)},
	{"per_piece", compileAll(`per\s+piece`, `/\s*piece`, `\beach\b`)},
	{"per_pack", compileAll(`per\s+pack`, `/\s*pack`, `per\s+package`)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(`(?i)` + e)
	}
	return res
}

// DetectUnit scans text against the ordered unit phrase table and returns
// the first matching unit label, defaulting to "each".
func DetectUnit(text string) string {
	if text == "" {
		return UnitEach
	}
	for _, up := range unitPatterns {
		for _, re := range up.patterns {
			if re.MatchString(text) {
				return up.unit
			}
		}
	}
	return UnitEach
}
