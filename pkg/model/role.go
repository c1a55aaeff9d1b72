package model

import (
	"errors"
	"fmt"
)

// Role is a profile's rank inside its company.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

var roleRank = map[Role]int{
	RoleMember:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
	RoleOwner:     4,
}

// ErrUnknownRole is returned by ParseRole for names outside the role ladder.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every role from lowest to highest.
func Roles() []Role {
	return []Role{RoleMember, RoleModerator, RoleAdmin, RoleOwner}
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is on the role ladder.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles rank below
// everything.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[min]
}

func (r Role) String() string {
	return string(r)
}
