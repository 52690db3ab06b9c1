package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	htmlEntities = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&nbsp;", " ",
		"&#39;", "'",
		"&#x27;", "'",
		"&#x2F;", "/",
		"&#x60;", "`",
		"&#x3D;", "=",
	)
)

// CleanText collapses whitespace, decodes common HTML entities, and
// applies NFC unicode normalization.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	cleaned = htmlEntities.Replace(cleaned)
	return norm.NFC.String(cleaned)
}

// ParseSpecifications extracts key/value specification pairs from line
// oriented text. Lines are split on the first of ":", "=", "-", "–", "—";
// overly long keys or values are skipped as extraction noise.
func ParseSpecifications(text string) map[string]string {
	specs := make(map[string]string)

	for line := range strings.Lines(text) {
		line = CleanText(line)
		if len(line) < 3 {
			continue
		}
		for _, sep := range []string{":", "=", "-", "–", "—"} {
			key, value, found := strings.Cut(line, sep)
			if !found {
				continue
			}
			key = CleanText(key)
			value = CleanText(value)
			if key != "" && value != "" && len(key) < 50 && len(value) < 200 {
				specs[key] = value
			}
			break
		}
	}

	return specs
}
