// README: Roles and the authenticated principal resolved at the HTTP boundary.
package account

import (
	"errors"

	"sahayog/internal/types"
)

type Role string

const (
	RoleCustomer          Role = "customer"
	RoleDriver            Role = "driver"
	RoleVendor            Role = "vendor"
	RoleCooperativeMember Role = "cooperative_member"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps a token claim to a Role. An empty claim is a customer.
func ParseRole(v string) (Role, error) {
	switch Role(v) {
	case "":
		return RoleCustomer, nil
	case RoleCustomer, RoleDriver, RoleVendor, RoleCooperativeMember:
		return Role(v), nil
	}
	return "", ErrUnknownRole
}

// Principal is the caller of a request.
type Principal struct {
	ID    types.ID
	Role  Role
	Admin bool
}

func (p Principal) IsDriver() bool { return p.Role == RoleDriver }

func (p Principal) CanRequestRide() bool {
	return p.Role == RoleCustomer || p.Role == RoleDriver
}

func (p Principal) CanAcceptRide() bool { return p.Role == RoleDriver }

func (p Principal) CanManageVehicles() bool { return p.Role == RoleDriver }

func (p Principal) CanManageDriverProfile() bool { return p.Role == RoleDriver }
