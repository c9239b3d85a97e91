package services

import (
	"fmt"

	"homelyquad/internal/common"
	"homelyquad/internal/models"
)

// actorKind names which party may perform a transition.
type actorKind string

const (
	actorOwningLandlord  actorKind = "owning_landlord"
	actorAssignedWorkman actorKind = "assigned_workman"
)

var requestTransitions = map[models.RequestStatus]map[models.RequestStatus]actorKind{
	models.StatusPending: {
		models.StatusApproved: actorOwningLandlord,
		models.StatusRejected: actorOwningLandlord,
	},
	models.StatusApproved: {
		models.StatusAssigned: actorOwningLandlord,
	},
	models.StatusAssigned: {
		models.StatusInProgress: actorAssignedWorkman,
	},
	models.StatusInProgress: {
		models.StatusCompleted: actorAssignedWorkman,
	},
	models.StatusRejected:  {},
	models.StatusCompleted: {},
}

// CanTransition reports whether from -> to is in the lifecycle table.
func CanTransition(from, to models.RequestStatus) bool {
	_, ok := requestTransitions[from][to]
	return ok
}

// requiredFrom returns the single status a transition into to must start from.
func requiredFrom(to models.RequestStatus) (models.RequestStatus, actorKind, bool) {
	for from, targets := range requestTransitions {
		if actor, ok := targets[to]; ok {
			return from, actor, true
		}
	}
	return "", "", false
}

func validateTransition(from, to models.RequestStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot move request from %s to %s: %w", from, to, common.ErrInvalidTransition)
	}
	return nil
}
