package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleResident  = "resident"
	RoleSecretary = "secretary"
	RoleVendor    = "vendor"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleResident, RoleSecretary, RoleVendor:
		return true
	}
	return false
}

// User is a registered account stored in the users collection.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	// PasswordHash is a bcrypt hash; it is never returned by the API.
	PasswordHash string     `json:"passwordHash,omitempty"`
	VendorID     string     `json:"vendorId,omitempty"`
	Apartment    string     `json:"apartment,omitempty"`
	Block        string     `json:"block,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var userKeys = newKeySet(
	"id", "name", "email", "role", "passwordHash",
	"vendorId", "apartment", "block", "createdAt",
)

type userAlias User

func (u *User) UnmarshalJSON(data []byte) error {
	var a userAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, userKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*u = User(a)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(userAlias(u))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, u.Extra, userKeys)
}

// EnsureID assigns a new UUID if the user does not have one yet.
func (u *User) EnsureID() {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
}

// Identity returns the session identity of the user.
func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
		VendorID: u.VendorID,
	}
}

// Identity is the active session: who is acting and in which role.
type Identity struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	VendorID string `json:"vendorId,omitempty"`
}

func (i Identity) IsZero() bool {
	return i.ID == "" && i.Email == "" && i.VendorID == ""
}

// SameEmail compares e-mail addresses case-insensitively.
func SameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
