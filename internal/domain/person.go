package domain

import (
	"time"

	"github.com/google/uuid"
)

// PersonID is a value object for person identity.
type PersonID struct{ uuid.UUID }

// NewPersonID creates a PersonID from a uuid.
func NewPersonID(id uuid.UUID) PersonID { return PersonID{UUID: id} }

// String returns the canonical string form.
func (p PersonID) String() string { return p.UUID.String() }

// ChannelKind distinguishes contact channel transports.
type ChannelKind string

const (
	ChannelEmail ChannelKind = "email"
	ChannelPhone ChannelKind = "phone"
)

// ContactChannel is a single contact address (email or phone) with its own
// verification status and at most one live verification code.
type ContactChannel struct {
	ID           uuid.UUID
	Kind         ChannelKind
	Country      string // phone only
	Address      string
	Verified     bool
	Code         *string
	CodeIssuedAt *time.Time
}

// Credentials is the login block of a person. LoginAttempts and LockUntil are
// mutated only through LockoutPolicy transitions; callers never set them
// directly.
type Credentials struct {
	PasswordHash            string
	LoginAttempts           int
	LockUntil               *time.Time
	AdminLocked             bool
	LastLoginIP             string
	SecondFactorSecret      string
	SecondFactorConfirmedAt *time.Time
}

// SecondFactorEnabled reports whether a confirmed TOTP secret exists.
func (c Credentials) SecondFactorEnabled() bool {
	return c.SecondFactorSecret != "" && c.SecondFactorConfirmedAt != nil
}

// Gender values accepted in UserInfo.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// UserInfo holds the person's profile fields.
type UserInfo struct {
	Suffix     string
	FirstName  string
	MiddleName string
	LastName   string
	BirthDate  *time.Time
	Gender     string
}

// Identification is a government-issued document attached to a person.
type Identification struct {
	ID       uuid.UUID
	Number   string
	Type     string
	IssuedAt *time.Time
	Expiry   *time.Time
	Verified bool
}

// PostalAddress is a physical address attached to a person.
type PostalAddress struct {
	ID                   uuid.UUID
	Line1                string
	Line2                string
	Line3                string
	City                 string
	State                string
	Zip                  string
	Country              string
	CountryOfResidence   bool
	CountryOfCitizenship bool
}

// Person is a durable identity record holding credentials and contact
// channels.
type Person struct {
	ID              PersonID
	Channels        []ContactChannel
	Login           Credentials
	Info            UserInfo
	Identifications []Identification
	Addresses       []PostalAddress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Channel returns the channel with the given address, compared as stored.
func (p *Person) Channel(address string) (*ContactChannel, bool) {
	for i := range p.Channels {
		if p.Channels[i].Address == address {
			return &p.Channels[i], true
		}
	}
	return nil, false
}
