package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"address-book/internal/constants"
	"address-book/internal/models"
	errs "address-book/pkg/errors"
	"address-book/pkg/utils"
)

var (
	// nameRegex allows letters in any script, spaces, dots, apostrophes and hyphens
	nameRegex = regexp.MustCompile(`^[\p{L} .'\-]+$`)

	// reservedNumbers are emergency-service numbers that can never be stored.
	reservedNumbers = map[string]struct{}{
		"911": {},
		"112": {},
		"999": {},
		"100": {},
		"101": {},
	}
)

// ValidateName validates a contact display name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValidation("validation.ValidateName", "name", "name cannot be empty", nil)
	}
	if utf8.RuneCountInString(name) < constants.NameMinRunes {
		return errs.NewValidation("validation.ValidateName", "name", "name must be at least 2 characters", nil)
	}
	if !nameRegex.MatchString(name) {
		return errs.NewValidation("validation.ValidateName", "name", "name contains invalid characters", nil)
	}
	return nil
}

// NormalizeCategory matches raw against the allowed labels case-insensitively
// and returns the canonical spelling.
func NormalizeCategory(raw string) (models.Category, error) {
	raw = strings.TrimSpace(raw)
	for _, c := range models.Categories {
		if strings.EqualFold(string(c), raw) {
			return c, nil
		}
	}
	return "", errs.NewValidation("validation.NormalizeCategory", "category",
		"category must be one of Family, Personal, Work, Other", nil)
}

// StandardizeCategory is NormalizeCategory with Other as the fallback.
func StandardizeCategory(raw string) models.Category {
	c, err := NormalizeCategory(raw)
	if err != nil {
		return models.CategoryOther
	}
	return c
}

// CleanPhone strips everything but digits.
func CleanPhone(phone string) string {
	return utils.ExtractPhoneDigits(phone)
}

// ValidatePhone validates a phone number after cleaning it to digits.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return errs.NewValidation("validation.ValidatePhone", "phone", "phone number cannot be empty", nil)
	}
	digits := CleanPhone(phone)
	if digits == "" {
		return errs.NewValidation("validation.ValidatePhone", "phone", "phone number must contain digits", nil)
	}
	if IsReserved(digits) {
		return errs.NewValidation("validation.ValidatePhone", "phone", digits+" is a reserved emergency number", nil)
	}
	if len(digits) < constants.PhoneMinDigits || len(digits) > constants.PhoneMaxDigits {
		return errs.NewValidation("validation.ValidatePhone", "phone", "phone number must be 7-15 digits", nil)
	}
	return nil
}

// IsReserved reports whether phone, once cleaned, is an emergency number.
func IsReserved(phone string) bool {
	_, ok := reservedNumbers[CleanPhone(phone)]
	return ok
}

// ReservedNumbers returns the reserved list, sorted for display.
func ReservedNumbers() []string {
	out := make([]string, 0, len(reservedNumbers))
	for n := range reservedNumbers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ValidateContactFields validates a submitted contact.
// Returns a map of field names to error messages; empty when valid.
func ValidateContactFields(name, category, phone string) map[string]string {
	out := make(map[string]string)
	if err := ValidateName(name); err != nil {
		out["name"] = errs.MessageOf(err)
	}
	if _, err := NormalizeCategory(category); err != nil {
		out["category"] = errs.MessageOf(err)
	}
	if err := ValidatePhone(phone); err != nil {
		out["phone"] = errs.MessageOf(err)
	}
	return out
}
