package enums

// UserRole distinguishes the actors sharing the users table.
type UserRole string

const (
	UserRoleCustomer  UserRole = "customer"
	UserRoleShopOwner UserRole = "shop_owner"
	UserRoleDriver    UserRole = "driver"
	UserRoleAdmin     UserRole = "admin"
)

var userRoles = values[UserRole]{UserRoleCustomer, UserRoleShopOwner, UserRoleDriver, UserRoleAdmin}

func (r UserRole) IsValid() bool { return userRoles.has(r) }

func ParseUserRole(raw string) (UserRole, error) {
	return userRoles.parse("user role", raw)
}
