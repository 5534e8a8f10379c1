package user

import (
	"errors"
	"strings"
)

// Role is the closed set of marketplace roles. The UI this engine replaces
// branched on raw role strings with fallthrough defaults; here unknown values
// fail parsing instead.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
)

var ErrUnknownRole = errors.New("user: unknown role")

// ParseRole maps an externally supplied role string onto the closed variant.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleClient:
		return RoleClient, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// CanInspectAttempt reports whether the role may read a booking attempt owned
// by another user. The switch is exhaustive over the closed set.
func (r Role) CanInspectAttempt(ownerID, callerID string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleClient, RoleOwner:
		return ownerID == callerID
	}
	return false
}
