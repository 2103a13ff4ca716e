package common

import "regexp"

var phoneRegex = regexp.MustCompile(`^1[3-9]\d{9}$`)

// IsValidPhone reports whether s looks like a mainland mobile number.
func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// MaskPhone keeps the first three and last four digits for display. The raw
// number is never persisted.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-4:]
}
