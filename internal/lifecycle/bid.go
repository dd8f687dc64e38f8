package lifecycle

import (
	"strings"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"

	"github.com/google/uuid"
)

type BidAction string

const (
	BidUpdate   BidAction = "update"
	BidAccept   BidAction = "accept"
	BidReject   BidAction = "reject"
	BidWithdraw BidAction = "withdraw"
	BidComplete BidAction = "complete"
	BidCancel   BidAction = "cancel"
)

// Role is the relationship of the acting user to a bid.
type Role string

const (
	RoleNone     Role = "none"
	RoleTasker   Role = "tasker"
	RoleCustomer Role = "customer"
)

// BidEffect is a side effect the manager performs after persisting the move.
type BidEffect string

const (
	// EffectRejectSiblings moves every other PENDING bid on the task to REJECTED.
	EffectRejectSiblings BidEffect = "reject_siblings"
	EffectTaskAssigned   BidEffect = "task_assigned"
	EffectTaskReopened   BidEffect = "task_reopened"
	EffectTaskCompleted  BidEffect = "task_completed"
)

type BidRule struct {
	To      entity.BidStatus
	Actors  []Role
	Effects []BidEffect
}

type bidKey struct {
	from   entity.BidStatus
	action BidAction
}

var bidTransitions = map[bidKey]BidRule{
	{entity.BidStatusPending, BidUpdate}: {
		To:     entity.BidStatusPending,
		Actors: []Role{RoleTasker},
	},
	{entity.BidStatusPending, BidAccept}: {
		To:      entity.BidStatusAccepted,
		Actors:  []Role{RoleCustomer},
		Effects: []BidEffect{EffectRejectSiblings, EffectTaskAssigned},
	},
	{entity.BidStatusPending, BidReject}: {
		To:     entity.BidStatusRejected,
		Actors: []Role{RoleCustomer},
	},
	{entity.BidStatusPending, BidWithdraw}: {
		To:     entity.BidStatusWithdrawn,
		Actors: []Role{RoleTasker},
	},
	{entity.BidStatusAccepted, BidWithdraw}: {
		To:      entity.BidStatusWithdrawn,
		Actors:  []Role{RoleTasker},
		Effects: []BidEffect{EffectTaskReopened},
	},
	{entity.BidStatusAccepted, BidComplete}: {
		To:      entity.BidStatusCompleted,
		Actors:  []Role{RoleTasker},
		Effects: []BidEffect{EffectTaskCompleted},
	},
	{entity.BidStatusAccepted, BidCancel}: {
		To:      entity.BidStatusCancelled,
		Actors:  []Role{RoleTasker, RoleCustomer},
		Effects: []BidEffect{EffectTaskReopened},
	},
}

// BidRole derives the actor's relationship to the bid.
func BidRole(bid *entity.Bid, actorID uuid.UUID) Role {
	switch actorID {
	case bid.TaskerID:
		return RoleTasker
	case bid.CustomerID:
		return RoleCustomer
	default:
		return RoleNone
	}
}

// ValidateBid looks up the move in the transition table and checks the actor.
func ValidateBid(from entity.BidStatus, role Role, action BidAction) (BidRule, error) {
	rule, ok := bidTransitions[bidKey{from, action}]
	if !ok {
		return BidRule{}, apperr.InvalidOperationErr("cannot %s a bid in status %s", action, from)
	}

	for _, allowed := range rule.Actors {
		if allowed == role {
			return rule, nil
		}
	}

	return BidRule{}, apperr.InvalidOperationErr("only the %s may %s this bid", joinRoles(rule.Actors), action)
}

func (r BidRule) Has(effect BidEffect) bool {
	for _, e := range r.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// IsTerminalBid reports whether no action can move the bid further.
func IsTerminalBid(status entity.BidStatus) bool {
	for key := range bidTransitions {
		if key.from == status {
			return false
		}
	}
	return true
}

func joinRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
