package normalize

import (
	"regexp"
	"strconv"
)

var (
	dimLWHRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)`)
	dimLWRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)`)

	dimAxisRes = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"length", regexp.MustCompile(`(?i)(?:length|long)[:=]?\s*(\d+(?:\.\d+)?)\s*(?:ft|feet|in|inches|'|")?`)},
		{"width", regexp.MustCompile(`(?i)(?:width|wide)[:=]?\s*(\d+(?:\.\d+)?)\s*(?:ft|feet|in|inches|'|")?`)},
		{"height", regexp.MustCompile(`(?i)(?:height|high|tall)[:=]?\s*(\d+(?:\.\d+)?)\s*(?:ft|feet|in|inches|'|")?`)},
		{"depth", regexp.MustCompile(`(?i)(?:depth|deep)[:=]?\s*(\d+(?:\.\d+)?)\s*(?:ft|feet|in|inches|'|")?`)},
	}
)

// ParseDimensions extracts dimensional measurements from free text. A
// compound LxWxH (or LxW) match takes precedence over individual-axis
// phrases since it is unambiguous; per-axis phrases fill in anything the
// compound match did not cover.
func ParseDimensions(text string) map[string]float64 {
	dims := make(map[string]float64)
	if text == "" {
		return dims
	}

	if m := dimLWHRe.FindStringSubmatch(text); m != nil {
		dims["length"] = mustFloat(m[1])
		dims["width"] = mustFloat(m[2])
		dims["height"] = mustFloat(m[3])
	} else if m := dimLWRe.FindStringSubmatch(text); m != nil {
		dims["length"] = mustFloat(m[1])
		dims["width"] = mustFloat(m[2])
	}

	for _, axis := range dimAxisRes {
		if _, ok := dims[axis.name]; ok {
			continue
		}
		if m := axis.re.FindStringSubmatch(text); m != nil {
			dims[axis.name] = mustFloat(m[1])
		}
	}

	return dims
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
