package models

// UnitOwnership holds the facts the authorization gate needs about a rental unit.
type UnitOwnership struct {
	UnitID         int64 `json:"unit_id"`
	PremisesID     int64 `json:"premises_id"`
	LandlordID     int64 `json:"landlord_id"`
	OrganizationID int64 `json:"organization_id"`
}
