package integrity

import (
	"time"

	"github.com/roach88/safeline/internal/apperr"
)

// MinimumAge is the youngest age at which a user may register.
const MinimumAge = 13

// CheckDateOfBirth requires dob to be set, in the past, and at least
// MinimumAge years before now.
func CheckDateOfBirth(dob, now time.Time) error {
	if dob.IsZero() {
		return apperr.Validation("user", "date_of_birth", "is required")
	}
	if dob.After(now) {
		return apperr.Validation("user", "date_of_birth", "must be in the past")
	}
	if Age(dob, now) < MinimumAge {
		return apperr.Validation("user", "date_of_birth", "user must be at least 13 years old")
	}
	return nil
}

// Age returns the number of whole years between dob and now.
func Age(dob, now time.Time) int {
	dob, now = dob.UTC(), now.UTC()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
