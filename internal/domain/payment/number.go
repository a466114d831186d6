package payment

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber rewrites an amount such as "1500.5" or "5 341 565,78" as
// "1 500,50": two decimals, space thousands separator, comma decimal mark.
// Input that does not parse is returned unchanged.
func FormatNumber(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}

	fixed := strconv.FormatFloat(math.Abs(f), 'f', 2, 64)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if f < 0 {
		b.WriteByte('-')
	}
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
