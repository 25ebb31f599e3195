package auth

import (
	"errors"
	"strings"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal is the authenticated UI user attached to a request.
type Principal struct {
	UserID int64
	Email  string
	Role   string // "admin" or "viewer"
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
