// Package session holds the authenticated identity and bearer credential and
// persists them across process restarts.
//
// Only the authentication flow writes a session. Everything else consumes the
// read-only Provider view.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the marketplace role of an actor
type Role string

const (
	RoleStudent Role = "student"
	RoleStartup Role = "startup"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStartup, RoleAdmin:
		return true
	}
	return false
}

// Identity is the user record returned by the backend on login
type Identity struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	Email            string `json:"email"`
	ProfileCompleted bool   `json:"profileCompleted"`
}

// UnmarshalJSON accepts _id as an alias of id.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Identity(aux.plain)
	if i.ID == "" {
		i.ID = aux.MongoID
	}
	return nil
}

// Session pairs a bearer credential with the identity it belongs to.
// Both halves are present or the session does not exist.
type Session struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// Valid reports whether s is structurally usable at now: token and user id
// are set, the role is known, and a JWT token has not expired. Opaque
// (non-JWT) tokens carry no expiry and are left for the backend to judge.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.Token) == "" || strings.TrimSpace(s.User.ID) == "" {
		return false
	}
	if !s.User.Role.Valid() {
		return false
	}
	if exp, ok := TokenExpiry(s.Token); ok && !exp.After(now) {
		return false
	}
	return true
}

// TokenExpiry decodes the exp claim of a JWT without verifying its
// signature. ok is false for opaque tokens or tokens without exp.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Provider is the read-only view of the current session.
type Provider interface {
	// Load returns the current session; ok is false when none is usable.
	Load() (Session, bool)
}

// Store is the full session store. Implementations never surface storage
// errors from Load: an unreadable session is an absent session.
type Store interface {
	Provider

	// Save persists token and user together. A partial session is rejected.
	Save(token string, user Identity) error

	// Clear removes any stored session. Clearing twice is not an error.
	Clear() error
}
