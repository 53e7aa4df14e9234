package enums

import "fmt"

// UserRole determines which lifecycle transitions a principal may invoke.
type UserRole string

const (
	UserRoleFarmer     UserRole = "farmer"
	UserRoleTrader     UserRole = "trader"
	UserRoleCommittee  UserRole = "committee"
	UserRoleAdmin      UserRole = "admin"
	UserRoleWeight     UserRole = "weight"
	UserRoleLilav      UserRole = "lilav"
	UserRoleAccountant UserRole = "accountant"
)

var validUserRoles = []UserRole{
	UserRoleFarmer,
	UserRoleTrader,
	UserRoleCommittee,
	UserRoleAdmin,
	UserRoleWeight,
	UserRoleLilav,
	UserRoleAccountant,
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

// IsStaff reports whether the role authenticates with a password instead of OTP.
func (r UserRole) IsStaff() bool {
	switch r {
	case UserRoleCommittee, UserRoleAdmin, UserRoleWeight, UserRoleLilav, UserRoleAccountant:
		return true
	}
	return false
}

// CodePrefix returns the custom-code prefix for privileged roles, empty otherwise.
func (r UserRole) CodePrefix() string {
	switch r {
	case UserRoleTrader:
		return "TRD"
	case UserRoleAdmin:
		return "ADM"
	case UserRoleCommittee:
		return "MCDB"
	case UserRoleLilav:
		return "LLV"
	}
	return ""
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
