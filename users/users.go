package users

import "strings"

// User is a registered participant. Users are created by the registration
// tooling or the admin bootstrap; the login flow only reads them.
type User struct {
	Email           string  // Lower-cased, unique key
	Name            string  // Real name
	Alias           string  // Public display name
	Affiliation     string  // School, university or company
	Grade           string  // Class or year, free text
	WantMails       *bool   // nil means never answered
	ConsentRealName bool    // Allows showing Name publicly
	WillShowUp      *string // Attendance answer, nil when unset
	PhotoSHA1       string  // Content hash of the uploaded photo
	PhotoMimeType   string
}

// NormalizeEmail lower-cases and trims an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
