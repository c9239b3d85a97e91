package services

import (
	"fmt"

	"homelyquad/internal/common"
	"homelyquad/internal/models"
)

// requestParties are the facts the gate decides on.
type requestParties struct {
	request   *models.MaintenanceRequest
	ownership *models.UnitOwnership
}

func (p requestParties) isTenant(actor models.ActingUser) bool {
	return actor.Role == models.RoleTenant && p.request.TenantID == actor.ID
}

func (p requestParties) isOwningLandlord(actor models.ActingUser) bool {
	return actor.Role == models.RoleLandlord && p.ownership != nil && p.ownership.LandlordID == actor.ID
}

func (p requestParties) isAssignedWorkman(actor models.ActingUser) bool {
	return actor.Role == models.RoleWorkman &&
		p.request.AssignedWorkmanID != nil && *p.request.AssignedWorkmanID == actor.ID
}

// checkOrganization hides requests of other organizations entirely.
func checkOrganization(actor models.ActingUser, req *models.MaintenanceRequest) error {
	if req.OrganizationID != actor.OrganizationID {
		return fmt.Errorf("maintenance request %d: %w", req.ID, common.ErrNotFound)
	}
	return nil
}

func (p requestParties) canView(actor models.ActingUser) bool {
	return p.isTenant(actor) || p.isOwningLandlord(actor) || p.isAssignedWorkman(actor)
}

func (p requestParties) authorizeView(actor models.ActingUser) error {
	if !p.canView(actor) {
		return fmt.Errorf("user %d may not view request %d: %w", actor.ID, p.request.ID, common.ErrForbidden)
	}
	return nil
}

func (p requestParties) authorizeLandlord(actor models.ActingUser) error {
	if !p.isOwningLandlord(actor) {
		return fmt.Errorf("user %d does not own the unit of request %d: %w", actor.ID, p.request.ID, common.ErrForbidden)
	}
	return nil
}

// authorizeWorkman rejects workmen other than the assignee. While no one is
// assigned the request is not in a workman state, so the table check decides.
func (p requestParties) authorizeWorkman(actor models.ActingUser) error {
	if actor.Role != models.RoleWorkman {
		return fmt.Errorf("user %d is not a workman: %w", actor.ID, common.ErrForbidden)
	}
	if p.request.AssignedWorkmanID != nil && *p.request.AssignedWorkmanID != actor.ID {
		return fmt.Errorf("user %d is not assigned to request %d: %w", actor.ID, p.request.ID, common.ErrForbidden)
	}
	return nil
}

func (p requestParties) authorizeTransition(actor models.ActingUser, kind actorKind) error {
	switch kind {
	case actorOwningLandlord:
		return p.authorizeLandlord(actor)
	case actorAssignedWorkman:
		return p.authorizeWorkman(actor)
	}
	return fmt.Errorf("unknown actor kind %q: %w", kind, common.ErrForbidden)
}
