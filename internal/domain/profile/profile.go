package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Profile is the aggregate root for a registered user.
type Profile struct {
	userID            uuid.UUID
	email             string
	passwordHash      string
	role              Role
	firstName         string
	lastName          string
	phoneNumber       string
	country           string
	preferredLanguage string
	pictureURL        string
	isActive          bool
	createdAt         time.Time
}

// Column widths of the profiles table.
const (
	MaxNameLen     = 100
	MaxPhoneLen    = 30
	MaxCountryLen  = 60
	MaxLanguageLen = 10
)

// NewProfile creates an active profile.
func NewProfile(email, passwordHash string, role Role, firstName, lastName string) *Profile {
	return NewProfileWithID(uuid.New(), email, passwordHash, role, firstName, lastName)
}

// NewProfileWithID creates an active profile under a caller-chosen id, for
// callers that store files keyed by the user before the profile is saved.
func NewProfileWithID(userID uuid.UUID, email, passwordHash string, role Role, firstName, lastName string) *Profile {
	return &Profile{
		userID:       userID,
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		role:         role,
		firstName:    firstName,
		lastName:     lastName,
		isActive:     true,
		createdAt:    time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Profile from persistence data (no validation).
func Reconstruct(
	userID uuid.UUID,
	email, passwordHash string,
	role Role,
	firstName, lastName, phoneNumber, country, preferredLanguage, pictureURL string,
	isActive bool,
	createdAt time.Time,
) *Profile {
	return &Profile{
		userID:            userID,
		email:             email,
		passwordHash:      passwordHash,
		role:              role,
		firstName:         firstName,
		lastName:          lastName,
		phoneNumber:       phoneNumber,
		country:           country,
		preferredLanguage: preferredLanguage,
		pictureURL:        pictureURL,
		isActive:          isActive,
		createdAt:         createdAt,
	}
}

func (p *Profile) UserID() uuid.UUID         { return p.userID }
func (p *Profile) Email() string             { return p.email }
func (p *Profile) PasswordHash() string      { return p.passwordHash }
func (p *Profile) Role() Role                { return p.role }
func (p *Profile) FirstName() string         { return p.firstName }
func (p *Profile) LastName() string          { return p.lastName }
func (p *Profile) PhoneNumber() string       { return p.phoneNumber }
func (p *Profile) Country() string           { return p.country }
func (p *Profile) PreferredLanguage() string { return p.preferredLanguage }
func (p *Profile) PictureURL() string        { return p.pictureURL }
func (p *Profile) IsActive() bool            { return p.isActive }
func (p *Profile) CreatedAt() time.Time      { return p.createdAt }

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool { return p.role == RoleAdmin }

// SetContact sets the optional contact details.
func (p *Profile) SetContact(phoneNumber, country, preferredLanguage string) {
	p.phoneNumber = strings.TrimSpace(phoneNumber)
	p.country = strings.TrimSpace(country)
	p.preferredLanguage = strings.TrimSpace(preferredLanguage)
}

// SetPictureURL sets the public URL of the profile picture.
func (p *Profile) SetPictureURL(url string) { p.pictureURL = url }

// Deactivate marks the profile inactive.
func (p *Profile) Deactivate() { p.isActive = false }

// ToggleActive flips the activation state.
func (p *Profile) ToggleActive() {
	p.isActive = !p.isActive
}

// Matches reports whether query appears in the name or email, case-insensitively.
func (p *Profile) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	full := strings.ToLower(p.firstName + " " + p.lastName)
	return strings.Contains(full, q) || strings.Contains(strings.ToLower(p.email), q)
}
