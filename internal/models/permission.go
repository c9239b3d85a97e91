package models

// Permission names used by route guards
const (
	PermissionViewProperties    = "properties:view"
	PermissionManageProperties  = "properties:manage"
	PermissionCreateMaintenance = "maintenance:create"
	PermissionManageMaintenance = "maintenance:manage"
	PermissionViewLeases        = "leases:view"
	PermissionManageLeases      = "leases:manage"
	PermissionViewPayments      = "payments:view"
	PermissionManagePayments    = "payments:manage"
	PermissionViewReports       = "reports:view"
	PermissionManageUsers       = "users:manage"
)

// Permissions is the capability set a role resolves to.
type Permissions struct {
	CanViewProperties            bool `json:"can_view_properties"`
	CanManageProperties          bool `json:"can_manage_properties"`
	CanCreateMaintenanceRequests bool `json:"can_create_maintenance_requests"`
	CanManageMaintenanceRequests bool `json:"can_manage_maintenance_requests"`
	CanViewLeases                bool `json:"can_view_leases"`
	CanManageLeases              bool `json:"can_manage_leases"`
	CanViewPayments              bool `json:"can_view_payments"`
	CanManagePayments            bool `json:"can_manage_payments"`
	CanViewReports               bool `json:"can_view_reports"`
	CanManageUsers               bool `json:"can_manage_users"`
}

// Has reports whether the named permission is granted. Unknown names are denied.
func (p Permissions) Has(name string) bool {
	switch name {
	case PermissionViewProperties:
		return p.CanViewProperties
	case PermissionManageProperties:
		return p.CanManageProperties
	case PermissionCreateMaintenance:
		return p.CanCreateMaintenanceRequests
	case PermissionManageMaintenance:
		return p.CanManageMaintenanceRequests
	case PermissionViewLeases:
		return p.CanViewLeases
	case PermissionManageLeases:
		return p.CanManageLeases
	case PermissionViewPayments:
		return p.CanViewPayments
	case PermissionManagePayments:
		return p.CanManagePayments
	case PermissionViewReports:
		return p.CanViewReports
	case PermissionManageUsers:
		return p.CanManageUsers
	}
	return false
}

// Names lists the granted permission names in a stable order.
func (p Permissions) Names() []string {
	all := []string{
		PermissionViewProperties, PermissionManageProperties,
		PermissionCreateMaintenance, PermissionManageMaintenance,
		PermissionViewLeases, PermissionManageLeases,
		PermissionViewPayments, PermissionManagePayments,
		PermissionViewReports, PermissionManageUsers,
	}
	granted := make([]string, 0, len(all))
	for _, name := range all {
		if p.Has(name) {
			granted = append(granted, name)
		}
	}
	return granted
}
