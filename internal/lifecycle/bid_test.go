package lifecycle

import (
	"testing"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
)

func TestValidateBid(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.BidStatus
		role    Role
		action  BidAction
		wantTo  entity.BidStatus
		wantErr bool
	}{
		{"customer accepts pending", entity.BidStatusPending, RoleCustomer, BidAccept, entity.BidStatusAccepted, false},
		{"tasker cannot accept", entity.BidStatusPending, RoleTasker, BidAccept, "", true},
		{"stranger cannot accept", entity.BidStatusPending, RoleNone, BidAccept, "", true},
		{"accepted cannot be accepted again", entity.BidStatusAccepted, RoleCustomer, BidAccept, "", true},
		{"customer rejects pending", entity.BidStatusPending, RoleCustomer, BidReject, entity.BidStatusRejected, false},
		{"reject only from pending", entity.BidStatusAccepted, RoleCustomer, BidReject, "", true},
		{"tasker updates pending", entity.BidStatusPending, RoleTasker, BidUpdate, entity.BidStatusPending, false},
		{"customer cannot update", entity.BidStatusPending, RoleCustomer, BidUpdate, "", true},
		{"update only while pending", entity.BidStatusAccepted, RoleTasker, BidUpdate, "", true},
		{"tasker withdraws pending", entity.BidStatusPending, RoleTasker, BidWithdraw, entity.BidStatusWithdrawn, false},
		{"tasker withdraws accepted", entity.BidStatusAccepted, RoleTasker, BidWithdraw, entity.BidStatusWithdrawn, false},
		{"customer cannot withdraw", entity.BidStatusAccepted, RoleCustomer, BidWithdraw, "", true},
		{"tasker completes accepted", entity.BidStatusAccepted, RoleTasker, BidComplete, entity.BidStatusCompleted, false},
		{"complete only from accepted", entity.BidStatusPending, RoleTasker, BidComplete, "", true},
		{"tasker cancels accepted", entity.BidStatusAccepted, RoleTasker, BidCancel, entity.BidStatusCancelled, false},
		{"customer cancels accepted", entity.BidStatusAccepted, RoleCustomer, BidCancel, entity.BidStatusCancelled, false},
		{"cancel not from pending", entity.BidStatusPending, RoleCustomer, BidCancel, "", true},
		{"rejected is terminal", entity.BidStatusRejected, RoleTasker, BidWithdraw, "", true},
		{"completed is terminal", entity.BidStatusCompleted, RoleCustomer, BidCancel, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ValidateBid(tt.from, tt.role, tt.action)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateBid() expected error, got rule %+v", rule)
				}
				assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
				return
			}
			if err != nil {
				t.Fatalf("ValidateBid() unexpected error: %v", err)
			}
			assert.Equal(t, rule.To, tt.wantTo)
		})
	}
}

func TestBidEffects(t *testing.T) {
	accept, _ := ValidateBid(entity.BidStatusPending, RoleCustomer, BidAccept)
	assert.Equal(t, accept.Has(EffectRejectSiblings), true)
	assert.Equal(t, accept.Has(EffectTaskAssigned), true)

	withdrawPending, _ := ValidateBid(entity.BidStatusPending, RoleTasker, BidWithdraw)
	assert.Equal(t, withdrawPending.Has(EffectTaskReopened), false)

	withdrawAccepted, _ := ValidateBid(entity.BidStatusAccepted, RoleTasker, BidWithdraw)
	assert.Equal(t, withdrawAccepted.Has(EffectTaskReopened), true)

	reject, _ := ValidateBid(entity.BidStatusPending, RoleCustomer, BidReject)
	assert.Equal(t, reject.Has(EffectRejectSiblings), false)
}

func TestIsTerminalBid(t *testing.T) {
	assert.Equal(t, IsTerminalBid(entity.BidStatusPending), false)
	assert.Equal(t, IsTerminalBid(entity.BidStatusAccepted), false)
	for _, s := range []entity.BidStatus{entity.BidStatusRejected, entity.BidStatusWithdrawn, entity.BidStatusCompleted, entity.BidStatusCancelled} {
		assert.Equal(t, IsTerminalBid(s), true)
	}
}

func TestBidRole(t *testing.T) {
	bid := &entity.Bid{TaskerID: uuid.New(), CustomerID: uuid.New()}

	assert.Equal(t, BidRole(bid, bid.TaskerID), RoleTasker)
	assert.Equal(t, BidRole(bid, bid.CustomerID), RoleCustomer)
	assert.Equal(t, BidRole(bid, uuid.New()), RoleNone)
}
