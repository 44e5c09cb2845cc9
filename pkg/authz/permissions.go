package authz

import "fmt"

// Permission is a capability a user carries. Permissions are flat; only
// PermissionAdmin implies everything else.
type Permission string

const (
	PermissionBuyTickets   Permission = "buy_tickets"
	PermissionCreateEvents Permission = "create_events"
	PermissionManageOrders Permission = "manage_orders"
	PermissionViewUsers    Permission = "view_users"
	PermissionEditUsers    Permission = "edit_users"
	PermissionAdmin        Permission = "admin"
)

var validPermissions = []Permission{
	PermissionBuyTickets,
	PermissionCreateEvents,
	PermissionManageOrders,
	PermissionViewUsers,
	PermissionEditUsers,
	PermissionAdmin,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
