package domain

import (
	"strconv"
	"strings"
)

// maxReceiptDigits keeps suffixes within int64 and matches the SQL that
// computes the maximum.
const maxReceiptDigits = 18

// ParseReceiptSuffix extracts the numeric part of a receipt number. ok is
// false when receipt lacks prefix or the remainder is not 1 to 18 digits.
func ParseReceiptSuffix(prefix, receipt string) (n int64, ok bool) {
	suffix, found := strings.CutPrefix(receipt, prefix)
	if !found || suffix == "" || len(suffix) > maxReceiptDigits {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
