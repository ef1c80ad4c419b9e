package integrity

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/safeline/internal/model"
)

// Text trims surrounding whitespace and converts s to Unicode NFC so that
// equal-looking strings compare and count equal.
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// NormalizeEmail lower-cases an address after Text normalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(Text(s))
}

// NormalizePhone strips spaces, dashes, dots and parentheses.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// NormalizeUser applies the per-field normalizations of a User in place.
func NormalizeUser(u *model.User) {
	u.Name = Text(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Phone = NormalizePhone(u.Phone)
	u.AvatarURL = strings.TrimSpace(u.AvatarURL)
}

// NormalizeContact applies the per-field normalizations of an
// EmergencyContact in place.
func NormalizeContact(c *model.EmergencyContact) {
	c.Name = Text(c.Name)
	c.Phone = NormalizePhone(c.Phone)
	c.Email = NormalizeEmail(c.Email)
	c.Relationship = Text(c.Relationship)
}

// NormalizeSettingsContacts normalizes the inline contacts of a settings row.
func NormalizeSettingsContacts(entries []model.EmergencyContactEntry) {
	for i := range entries {
		entries[i].Name = Text(entries[i].Name)
		entries[i].Phone = NormalizePhone(entries[i].Phone)
		entries[i].Relation = Text(entries[i].Relation)
	}
}
