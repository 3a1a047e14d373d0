package escrow

import (
	"github.com/google/uuid"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// Actor is the authenticated principal issuing a command.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsStaff reports whether the actor mediates on behalf of the platform.
func (a Actor) IsStaff() bool {
	return a.Role == enums.UserRoleAgent || a.Role == enums.UserRoleAdmin
}

// commandRoles is the base role table. Binding checks (is this hosteler the
// owner, is this helper the assignee) layer on top in authorize.
var commandRoles = map[enums.Command]map[enums.UserRole]bool{
	enums.CommandCreateRequest: {
		enums.UserRoleHosteler: true,
	},
	enums.CommandAcceptRequest: {
		enums.UserRoleHelper: true,
	},
	enums.CommandMarkPickedUp: {
		enums.UserRoleHelper: true,
		enums.UserRoleAgent:  true,
		enums.UserRoleAdmin:  true,
	},
	enums.CommandMarkDelivered: {
		enums.UserRoleHelper: true,
		enums.UserRoleAgent:  true,
		enums.UserRoleAdmin:  true,
	},
	enums.CommandComplete: {
		enums.UserRoleHelper: true,
		enums.UserRoleAgent:  true,
		enums.UserRoleAdmin:  true,
	},
	enums.CommandCancel: {
		enums.UserRoleHosteler: true,
		enums.UserRoleAgent:    true,
		enums.UserRoleAdmin:    true,
	},
	enums.CommandRaiseDispute: {
		enums.UserRoleHosteler: true,
		enums.UserRoleHelper:   true,
		enums.UserRoleAgent:    true,
		enums.UserRoleAdmin:    true,
	},
	enums.CommandResolveDispute: {
		enums.UserRoleAgent: true,
		enums.UserRoleAdmin: true,
	},
	enums.CommandAdjustWallet: {
		enums.UserRoleAgent: true,
		enums.UserRoleAdmin: true,
	},
}

// authorize enforces the role table plus actor-to-request bindings for a
// command against an existing request. CreateRequest has no request yet and
// only needs the role row.
func authorize(command enums.Command, actor Actor, request *models.DeliveryRequest) error {
	allowed := commandRoles[command]
	if !allowed[actor.Role] {
		return apperrors.New(apperrors.CodeForbidden, "role may not perform this action")
	}
	if request == nil || actor.IsStaff() {
		return nil
	}

	switch command {
	case enums.CommandAcceptRequest:
		if request.HostelerID == actor.UserID {
			return apperrors.New(apperrors.CodeForbidden, "cannot accept your own request")
		}
	case enums.CommandMarkPickedUp, enums.CommandMarkDelivered, enums.CommandComplete:
		if request.HelperID == nil || *request.HelperID != actor.UserID {
			return apperrors.New(apperrors.CodeForbidden, "only the assigned helper may do this")
		}
	case enums.CommandCancel:
		if request.HostelerID != actor.UserID {
			return apperrors.New(apperrors.CodeForbidden, "only the request owner may do this")
		}
	case enums.CommandRaiseDispute:
		isOwner := request.HostelerID == actor.UserID
		isAssigned := request.HelperID != nil && *request.HelperID == actor.UserID
		if !isOwner && !isAssigned {
			return apperrors.New(apperrors.CodeForbidden, "only a party to the request may dispute it")
		}
	}
	return nil
}

// transitions is the request lifecycle. Cancel and dispute are handled
// separately: both apply from any non-terminal status.
var transitions = map[enums.RequestStatus]map[enums.RequestStatus]bool{
	enums.RequestStatusOpen: {
		enums.RequestStatusAccepted: true,
	},
	enums.RequestStatusAccepted: {
		enums.RequestStatusPickedUp: true,
	},
	enums.RequestStatusPickedUp: {
		enums.RequestStatusDelivered: true,
	},
	enums.RequestStatusDelivered: {
		enums.RequestStatusCompleted: true,
	},
	enums.RequestStatusDisputed: {
		enums.RequestStatusCompleted: true,
		enums.RequestStatusCancelled: true,
	},
}

// checkTransition validates a lifecycle edge.
func checkTransition(from, to enums.RequestStatus) error {
	if to == enums.RequestStatusCancelled || to == enums.RequestStatusDisputed {
		if from.IsTerminal() {
			return apperrors.New(apperrors.CodeStateConflict, "request already settled")
		}
		if from == enums.RequestStatusDisputed && to == enums.RequestStatusDisputed {
			return apperrors.New(apperrors.CodeStateConflict, "request already disputed")
		}
		return nil
	}
	if !transitions[from][to] {
		return apperrors.New(apperrors.CodeStateConflict, "invalid status transition")
	}
	return nil
}
