package enums

import "fmt"

// AccountRole represents a tier in the account hierarchy. Roles form a strict
// chain: root manages managers, managers manage members, members hold wallets.
type AccountRole string

const (
	AccountRoleRoot    AccountRole = "root"
	AccountRoleManager AccountRole = "manager"
	AccountRoleMember  AccountRole = "member"
)

var validAccountRoles = []AccountRole{
	AccountRoleRoot,
	AccountRoleManager,
	AccountRoleMember,
}

// String implements fmt.Stringer.
func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AccountRole.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ManagedBy returns the role directly above in the hierarchy, or false for root.
func (r AccountRole) ManagedBy() (AccountRole, bool) {
	switch r {
	case AccountRoleManager:
		return AccountRoleRoot, true
	case AccountRoleMember:
		return AccountRoleManager, true
	}
	return "", false
}

// OwnsWallet reports whether accounts of this role carry a wallet.
func (r AccountRole) OwnsWallet() bool {
	return r == AccountRoleMember
}

// ParseAccountRole converts raw input into an AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
