package identifiers

import (
	"regexp"
	"strings"
)

var (
	isrcPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{3}[0-9]{7}$`)
	upcPattern  = regexp.MustCompile(`^[0-9]{12,13}$`)

	separatorReplacer = strings.NewReplacer("-", "", " ", "")
)

// NormalizeISRC strips separators and upper-cases the code so "us-xxx-26-00001"
// and "USXXX2600001" compare equal.
func NormalizeISRC(value string) string {
	return strings.ToUpper(separatorReplacer.Replace(strings.TrimSpace(value)))
}

// ValidISRC reports whether value is a normalized ISRC.
func ValidISRC(value string) bool {
	return isrcPattern.MatchString(value)
}

// NormalizeUPC strips separators.
func NormalizeUPC(value string) string {
	return separatorReplacer.Replace(strings.TrimSpace(value))
}

// ValidUPC accepts 12 digit UPC-A and 13 digit EAN-13 codes.
func ValidUPC(value string) bool {
	return upcPattern.MatchString(value)
}
