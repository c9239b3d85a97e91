// Package demo seeds a memory store with a small organization for local runs and tests.
package demo

import (
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"
)

// Fixed identities seeded by NewStore.
const (
	OrgID        int64 = 1
	ForeignOrgID int64 = 2

	LandlordID      int64 = 10
	OtherLandlordID int64 = 11
	TenantID        int64 = 20
	OtherTenantID   int64 = 21
	WorkmanID       int64 = 30
	OtherWorkmanID  int64 = 31
	AdminID         int64 = 40
	ForeignTenantID int64 = 50
	ForeignWorkerID int64 = 51

	UnitID        int64 = 100
	OtherUnitID   int64 = 101
	ForeignUnitID int64 = 200
)

// NewStore returns a memory store holding one organization with a landlord owning
// UnitID leased to TenantID, plus bystanders and a second organization.
func NewStore() *repositories.MemoryStore {
	store := repositories.NewMemoryStore()

	users := []models.User{
		{ID: LandlordID, OrganizationID: OrgID, Email: "landlord@example.com", FullName: "Lena Landlord", Role: models.RoleLandlord},
		{ID: OtherLandlordID, OrganizationID: OrgID, Email: "owner2@example.com", FullName: "Omar Owner", Role: models.RoleLandlord},
		{ID: TenantID, OrganizationID: OrgID, Email: "tenant@example.com", FullName: "Tara Tenant", Role: models.RoleTenant},
		{ID: OtherTenantID, OrganizationID: OrgID, Email: "neighbour@example.com", FullName: "Nico Neighbour", Role: models.RoleTenant},
		{ID: WorkmanID, OrganizationID: OrgID, Email: "fixer@example.com", FullName: "Wes Workman", Role: models.RoleWorkman},
		{ID: OtherWorkmanID, OrganizationID: OrgID, Email: "fixer2@example.com", FullName: "Val Workman", Role: models.RoleWorkman},
		{ID: AdminID, OrganizationID: OrgID, Email: "admin@example.com", FullName: "Ada Admin", Role: models.RoleAdmin},
		{ID: ForeignTenantID, OrganizationID: ForeignOrgID, Email: "far@example.com", FullName: "Faye Faraway", Role: models.RoleTenant},
		{ID: ForeignWorkerID, OrganizationID: ForeignOrgID, Email: "farfix@example.com", FullName: "Fred Faraway", Role: models.RoleWorkman},
	}
	for _, u := range users {
		store.AddUser(u)
	}

	store.AddUnit(models.UnitOwnership{UnitID: UnitID, PremisesID: 1, LandlordID: LandlordID, OrganizationID: OrgID})
	store.AddUnit(models.UnitOwnership{UnitID: OtherUnitID, PremisesID: 2, LandlordID: OtherLandlordID, OrganizationID: OrgID})
	store.AddUnit(models.UnitOwnership{UnitID: ForeignUnitID, PremisesID: 3, LandlordID: 60, OrganizationID: ForeignOrgID})

	store.AddLease(UnitID, TenantID)
	store.AddLease(OtherUnitID, OtherTenantID)
	store.AddLease(ForeignUnitID, ForeignTenantID)

	return store
}

// Actor returns the acting identity of a seeded user.
func Actor(id int64) models.ActingUser {
	switch id {
	case LandlordID, OtherLandlordID:
		return models.ActingUser{ID: id, Role: models.RoleLandlord, OrganizationID: OrgID}
	case TenantID, OtherTenantID:
		return models.ActingUser{ID: id, Role: models.RoleTenant, OrganizationID: OrgID}
	case WorkmanID, OtherWorkmanID:
		return models.ActingUser{ID: id, Role: models.RoleWorkman, OrganizationID: OrgID}
	case AdminID:
		return models.ActingUser{ID: id, Role: models.RoleAdmin, OrganizationID: OrgID}
	case ForeignTenantID:
		return models.ActingUser{ID: id, Role: models.RoleTenant, OrganizationID: ForeignOrgID}
	case ForeignWorkerID:
		return models.ActingUser{ID: id, Role: models.RoleWorkman, OrganizationID: ForeignOrgID}
	}
	return models.ActingUser{ID: id, OrganizationID: OrgID}
}
