package enums

import "fmt"

// UserRole identifies the party kind acting against the marketplace.
type UserRole string

const (
	UserRoleHosteler UserRole = "hosteler"
	UserRoleHelper   UserRole = "helper"
	UserRoleAgent    UserRole = "agent"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleHosteler,
	UserRoleHelper,
	UserRoleAgent,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role carries the admin trust boundary.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAgent || r == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
