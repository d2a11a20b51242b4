package authz

import (
	"github.com/google/uuid"

	"github.com/birrflow/birrflow-backend/pkg/enums"
	apperrors "github.com/birrflow/birrflow-backend/pkg/errors"
)

// Actor is the authenticated account evaluating an action.
type Actor struct {
	ID       uuid.UUID
	Role     enums.AccountRole
	IsActive bool
}

// Target is the minimal account shape a decision needs. No other state is read.
type Target struct {
	ID        uuid.UUID
	Role      enums.AccountRole
	ManagerID *uuid.UUID
}

// Decision carries the verdict plus a stable reason string on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanViewAny permits any active actor to list accounts within their scope.
func CanViewAny(actor Actor) Decision {
	if !actor.IsActive {
		return deny(apperrors.ReasonNotAuthorized)
	}
	return allow()
}

// CanView evaluates whether the actor may read the target account.
func CanView(actor Actor, target Target) Decision {
	if !actor.IsActive {
		return deny(apperrors.ReasonNotAuthorized)
	}
	switch actor.Role {
	case enums.AccountRoleRoot:
		return allow()
	case enums.AccountRoleManager:
		if target.ID == actor.ID {
			return allow()
		}
		if target.ManagerID != nil && *target.ManagerID == actor.ID {
			return allow()
		}
		return deny(apperrors.ReasonOutOfScope)
	case enums.AccountRoleMember:
		if target.ID == actor.ID {
			return allow()
		}
		return deny(apperrors.ReasonNotAuthorized)
	default:
		return deny(apperrors.ReasonNotAuthorized)
	}
}

// CanCreate evaluates whether the actor may create an account of the given role.
// Each tier may only create the tier directly below it.
func CanCreate(actor Actor, newRole enums.AccountRole) Decision {
	if !actor.IsActive {
		return deny(apperrors.ReasonNotAuthorized)
	}
	if !newRole.IsValid() {
		return deny(apperrors.ReasonInvalidRoleTransition)
	}
	switch actor.Role {
	case enums.AccountRoleRoot:
		if newRole == enums.AccountRoleManager {
			return allow()
		}
		return deny(apperrors.ReasonInvalidRoleTransition)
	case enums.AccountRoleManager:
		if newRole == enums.AccountRoleMember {
			return allow()
		}
		return deny(apperrors.ReasonInvalidRoleTransition)
	default:
		return deny(apperrors.ReasonNotAuthorized)
	}
}

// CanUpdate covers the activation toggle and shares CanView's scoping, except
// that an actor may never toggle themselves off their own management chain.
func CanUpdate(actor Actor, target Target) Decision {
	if !actor.IsActive {
		return deny(apperrors.ReasonNotAuthorized)
	}
	switch actor.Role {
	case enums.AccountRoleRoot:
		return allow()
	case enums.AccountRoleManager:
		if target.ManagerID != nil && *target.ManagerID == actor.ID {
			return allow()
		}
		return deny(apperrors.ReasonOutOfScope)
	default:
		return deny(apperrors.ReasonNotAuthorized)
	}
}

// CanDelete restricts account deletion to root.
func CanDelete(actor Actor, target Target) Decision {
	if !actor.IsActive {
		return deny(apperrors.ReasonNotAuthorized)
	}
	if actor.Role != enums.AccountRoleRoot {
		return deny(apperrors.ReasonNotAuthorized)
	}
	if target.ID == actor.ID {
		return deny(apperrors.ReasonOutOfScope)
	}
	return allow()
}
