package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CheckoutFingerprint derives a stable key summarizing a checkout: the
// sorted line-item ids with quantities plus the formatted total amount.
// The same cart contents and displayed total produce the same fingerprint
// across component remounts, which is what the durable dedup tier keys on.
//
// The total is rounded to 2 decimal places on purpose: two coupon states
// that round to the same displayed total count as the same checkout.
func CheckoutFingerprint(contents []Content, total float64) string {
	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		parts = append(parts, fmt.Sprintf("%s:%d", c.ID, c.Quantity))
	}
	sort.Strings(parts)

	amount := decimal.NewFromFloat(total).Round(2).StringFixed(2)
	payload := strings.Join(parts, "|") + "|" + amount

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
