package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Email pattern - RFC 5322 simplified
	EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,24}$`)

	// Phone pattern: optional leading +, 7-15 digits, spaces/dashes/parentheses as separators
	PhonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,22}[0-9]$`)

	// Attendee name: Unicode letters, spaces, dots, hyphens, apostrophes
	NamePattern = regexp.MustCompile(`^[\p{L} .'-]+$`)

	// Promo code: letters, digits, dash and underscore
	PromoCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
)

const (
	MaxNameLength  = 255
	MaxEmailLength = 255
	MaxQuantity    = 100
)

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	return EmailPattern.MatchString(email)
}

// IsValidPhone validates a phone number; the digit count must be 7..15.
func IsValidPhone(phone string) bool {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" || !PhonePattern.MatchString(trimmed) {
		return false
	}
	digits := 0
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// IsValidAttendeeName validates the name printed on the ticket
func IsValidAttendeeName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxNameLength {
		return false
	}
	return NamePattern.MatchString(trimmed)
}

// IsValidQuantity reports whether a booking quantity is in range
func IsValidQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxQuantity
}

// IsValidPromoCode checks the shape of a promo code, not its existence
func IsValidPromoCode(code string) bool {
	return PromoCodePattern.MatchString(strings.TrimSpace(code))
}

// NormalizePromoCode trims and upper-cases a code the way it is stored
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetEmailError returns user-friendly error message for email
func GetEmailError(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "Attendee email is required"
	}
	if !IsValidEmail(trimmed) {
		return "Attendee email is not valid"
	}
	return ""
}

// GetPhoneError returns user-friendly error message for an optional phone
func GetPhoneError(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	if !IsValidPhone(phone) {
		return "Attendee phone must contain 7 to 15 digits"
	}
	return ""
}

// GetNameError returns user-friendly error message for attendee name
func GetNameError(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Attendee name is required"
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "Attendee name is too long"
	}
	if !IsValidAttendeeName(trimmed) {
		return "Attendee name may only contain letters, spaces and . ' -"
	}
	return ""
}

// GetQuantityError returns user-friendly error message for quantity
func GetQuantityError(quantity int) string {
	if quantity < 1 {
		return "Quantity must be at least 1"
	}
	if quantity > MaxQuantity {
		return "Quantity must not exceed 100"
	}
	return ""
}
