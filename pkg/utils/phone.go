package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// ExtractPhoneDigits returns just the digits in a phone number string.
// "+970 (59) 123-4567" becomes "970591234567".
func ExtractPhoneDigits(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}

// NormalizeLocalPhone cleans a phone number to digits and, when countryCode is
// set, rewrites a 10-digit trunk-prefixed local number (0XXXXXXXXX) into its
// international form (countryCode + XXXXXXXXX).
// Rules:
// - all non-digits are dropped
// - only exactly 10 digits with a leading 0 are rewritten
// - an empty countryCode disables the rewrite
func NormalizeLocalPhone(phone, countryCode string) string {
	clean := ExtractPhoneDigits(phone)
	countryCode = ExtractPhoneDigits(countryCode)
	if countryCode == "" {
		return clean
	}
	if len(clean) == 10 && strings.HasPrefix(clean, "0") {
		return countryCode + clean[1:]
	}
	return clean
}

// MaskPhone hides all but the last four digits, for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
