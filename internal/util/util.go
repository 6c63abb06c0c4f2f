// Package util holds small pure helpers shared across services: slug
// derivation, field validators and SLA deadline arithmetic.
package util

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	clinicCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)
	slugStripRegex  = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	hyphenRunRegex  = regexp.MustCompile(`-+`)
)

// IsValidEmail reports whether email has the shape local@domain.tld.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidClinicCode reports whether code is 3-10 alphanumeric characters.
func IsValidClinicCode(code string) bool {
	return clinicCodeRegex.MatchString(code)
}

// GenerateSlug derives a URL-safe slug: lowercase, strip everything but
// letters, digits, spaces and hyphens, collapse whitespace to single
// hyphens, collapse hyphen runs, trim edge hyphens.
func GenerateSlug(text string) string {
	s := strings.ToLower(text)
	s = slugStripRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SLADeadline returns the deadline for a ticket opened now with the given
// target hours.
func SLADeadline(now time.Time, hours int) time.Time {
	return now.Add(time.Duration(hours) * time.Hour)
}

// IsSLAExpired reports whether the deadline has passed. A nil deadline
// never expires.
func IsSLAExpired(now time.Time, deadline *time.Time) bool {
	if deadline == nil {
		return false
	}
	return now.After(*deadline)
}

// IsSLAExpiring reports whether now is inside the warning window before the
// deadline.
func IsSLAExpiring(now time.Time, deadline *time.Time, warning time.Duration) bool {
	if deadline == nil {
		return false
	}
	return now.After(deadline.Add(-warning)) && now.Before(*deadline)
}
