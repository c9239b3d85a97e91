package services

import (
	"context"

	"homelyquad/internal/models"
)

// ResolvePermissions maps a role onto its fixed capability set.
// It is total: roles it does not know resolve to no permissions.
func ResolvePermissions(role models.Role) models.Permissions {
	switch role {
	case models.RoleAdmin:
		return models.Permissions{
			CanViewProperties:            true,
			CanManageProperties:          true,
			CanCreateMaintenanceRequests: true,
			CanManageMaintenanceRequests: true,
			CanViewLeases:                true,
			CanManageLeases:              true,
			CanViewPayments:              true,
			CanManagePayments:            true,
			CanViewReports:               true,
			CanManageUsers:               true,
		}
	case models.RoleLandlord:
		return models.Permissions{
			CanViewProperties:            true,
			CanManageProperties:          true,
			CanManageMaintenanceRequests: true,
			CanViewLeases:                true,
			CanManageLeases:              true,
			CanViewPayments:              true,
			CanManagePayments:            true,
			CanViewReports:               true,
		}
	case models.RoleTenant:
		return models.Permissions{
			CanViewProperties:            true,
			CanCreateMaintenanceRequests: true,
			CanViewLeases:                true,
			CanViewPayments:              true,
		}
	case models.RoleWorkman:
		return models.Permissions{
			CanViewProperties:            true,
			CanManageMaintenanceRequests: true,
		}
	default:
		return models.Permissions{}
	}
}

type RBACService interface {
	UserHasPermission(ctx context.Context, user models.ActingUser, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, user models.ActingUser) (models.Permissions, error)
}

type rbacService struct{}

func NewRBACService() RBACService {
	return &rbacService{}
}

func (s *rbacService) UserHasPermission(ctx context.Context, user models.ActingUser, permissionName string) (bool, error) {
	return ResolvePermissions(user.Role).Has(permissionName), nil
}

func (s *rbacService) GetUserPermissions(ctx context.Context, user models.ActingUser) (models.Permissions, error) {
	return ResolvePermissions(user.Role), nil
}
