package testhelpers

import (
	"homelyquad/internal/demo"
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"
)

const (
	OrgID        = demo.OrgID
	ForeignOrgID = demo.ForeignOrgID

	LandlordID      = demo.LandlordID
	OtherLandlordID = demo.OtherLandlordID
	TenantID        = demo.TenantID
	OtherTenantID   = demo.OtherTenantID
	WorkmanID       = demo.WorkmanID
	OtherWorkmanID  = demo.OtherWorkmanID
	AdminID         = demo.AdminID
	ForeignTenantID = demo.ForeignTenantID
	ForeignWorkerID = demo.ForeignWorkerID

	UnitID        = demo.UnitID
	OtherUnitID   = demo.OtherUnitID
	ForeignUnitID = demo.ForeignUnitID
)

// Scenario wraps a freshly seeded demo store.
type Scenario struct {
	Store *repositories.MemoryStore
}

func NewScenario() *Scenario {
	return &Scenario{Store: demo.NewStore()}
}

// Actor returns the acting identity of a seeded user.
func Actor(id int64) models.ActingUser {
	return demo.Actor(id)
}
