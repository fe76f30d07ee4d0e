package shared

import "strconv"

// FormatCents renders a minor-unit amount as dollars with two decimals,
// without thousands separators: 149999 becomes "$1499.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := strconv.FormatInt(cents/100, 10)
	rest := cents % 100
	frac := strconv.FormatInt(rest, 10)
	if rest < 10 {
		frac = "0" + frac
	}
	return sign + "$" + dollars + "." + frac
}
