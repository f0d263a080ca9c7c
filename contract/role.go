package contract

import "strings"

// Role is the part of the request a parameter is bound to. The declaration
// order is the precedence used when a parameter carries several annotations.
type Role int

const (
	RolePath Role = iota
	RoleHeader
	RoleBean
	RoleCookie
	RoleQuery
	RoleMatrix
	RoleForm
	RoleBody
)

var roleNames = [...]string{"path", "header", "bean", "cookie", "query", "matrix", "form", "body"}

// String returns the role's tag name.
func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// Named reports whether bindings of this role need a name.
func (r Role) Named() bool {
	return r != RoleBean && r != RoleBody
}

// ParseRole returns the role for a tag name.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == s {
			return Role(i), true
		}
	}
	return 0, false
}
