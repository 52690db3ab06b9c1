package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	codeCleanRe = regexp.MustCompile(`[^A-Z0-9]`)
	nameCleanRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscores = regexp.MustCompile(`_+`)
)

// ItemID derives a stable, supplier-scoped identifier for a product.
// With a product code the id is SUPPLIER_CODE; without one it falls back
// to SUPPLIER_NAME_HASH where the name is truncated to 20 characters and
// the hash is a short content digest of the full name. The function is
// idempotent so re-collection updates existing records instead of
// duplicating them.
func ItemID(supplier, productName, productCode string) string {
	supplier = strings.ToUpper(strings.TrimSpace(supplier))

	if productCode != "" {
		code := codeCleanRe.ReplaceAllString(strings.ToUpper(productCode), "")
		return supplier + "_" + code
	}

	name := nameCleanRe.ReplaceAllString(strings.ToUpper(productName), "_")
	name = underscores.ReplaceAllString(name, "_")
	if len(name) > 20 {
		name = name[:20]
	}
	name = strings.TrimRight(name, "_")

	sum := sha256.Sum256([]byte(productName))
	suffix := strings.ToUpper(hex.EncodeToString(sum[:]))[:6]

	return supplier + "_" + name + "_" + suffix
}
