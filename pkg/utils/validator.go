package utils

import (
	"regexp"
	"strconv"
	"time"
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	dateRegex         = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	idRegex           = regexp.MustCompile(`^\d+$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func IsAlphanumeric(s string) bool {
	return alphanumericRegex.MatchString(s)
}

// ParseDate parses a strict YYYY-MM-DD date. Trailing text, other separators
// and impossible days (2021-02-30) are rejected.
func ParseDate(s string) (time.Time, bool) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseID parses a non-negative base-10 integer id. Only plain digits are
// accepted, so signs and surrounding spaces are rejected.
func ParseID(s string) (int64, bool) {
	if !idRegex.MatchString(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}
