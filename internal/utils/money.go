package utils

import "fmt"

// FormatCents renders an amount in minor units as a decimal string, e.g.
// 100000 -> "1000.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
