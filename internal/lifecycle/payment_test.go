package lifecycle

import (
	"testing"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"

	"github.com/go-playground/assert/v2"
)

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name    string
		status  entity.PaymentStatus
		retries int
		action  PaymentAction
		wantTo  entity.PaymentStatus
		wantErr bool
	}{
		{"process pending", entity.PaymentStatusPending, 0, PaymentProcess, entity.PaymentStatusProcessing, false},
		{"process retry pending", entity.PaymentStatusRetryPending, 1, PaymentProcess, entity.PaymentStatusProcessing, false},
		{"no process while processing", entity.PaymentStatusProcessing, 0, PaymentProcess, "", true},
		{"no process when completed", entity.PaymentStatusCompleted, 0, PaymentProcess, "", true},
		{"complete processing", entity.PaymentStatusProcessing, 0, PaymentComplete, entity.PaymentStatusCompleted, false},
		{"complete requires processing", entity.PaymentStatusPending, 0, PaymentComplete, "", true},
		{"fail pending", entity.PaymentStatusPending, 0, PaymentFail, entity.PaymentStatusFailed, false},
		{"fail processing", entity.PaymentStatusProcessing, 0, PaymentFail, entity.PaymentStatusFailed, false},
		{"retry failed with budget", entity.PaymentStatusFailed, 2, PaymentRetry, entity.PaymentStatusRetryPending, false},
		{"retry exhausted", entity.PaymentStatusFailed, 3, PaymentRetry, "", true},
		{"retry requires failed", entity.PaymentStatusPending, 0, PaymentRetry, "", true},
		{"cancel pending", entity.PaymentStatusPending, 0, PaymentCancel, entity.PaymentStatusCancelled, false},
		{"cancel failed", entity.PaymentStatusFailed, 1, PaymentCancel, entity.PaymentStatusCancelled, false},
		{"cancel retry pending", entity.PaymentStatusRetryPending, 1, PaymentCancel, entity.PaymentStatusCancelled, false},
		{"no cancel while processing", entity.PaymentStatusProcessing, 0, PaymentCancel, "", true},
		{"no cancel when completed", entity.PaymentStatusCompleted, 0, PaymentCancel, "", true},
		{"no cancel when cancelled", entity.PaymentStatusCancelled, 0, PaymentCancel, "", true},
		{"no cancel when refunded", entity.PaymentStatusRefunded, 0, PaymentCancel, "", true},
		{"refund completed keeps status", entity.PaymentStatusCompleted, 0, PaymentRefund, entity.PaymentStatusCompleted, false},
		{"refund requires completed", entity.PaymentStatusFailed, 0, PaymentRefund, "", true},
		{"refund record succeeds", entity.PaymentStatusRefundPending, 0, PaymentRefundSucceed, entity.PaymentStatusRefunded, false},
		{"refund record fails", entity.PaymentStatusRefundPending, 0, PaymentRefundFail, entity.PaymentStatusRefundFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &entity.Payment{Status: tt.status, RetryCount: tt.retries, MaxRetries: entity.DefaultMaxRetries}

			rule, err := ValidatePayment(p, tt.action)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidatePayment() expected error, got rule %+v", rule)
				}
				assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
				return
			}
			if err != nil {
				t.Fatalf("ValidatePayment() unexpected error: %v", err)
			}
			assert.Equal(t, rule.To, tt.wantTo)
		})
	}
}

func TestPaymentEffects(t *testing.T) {
	p := &entity.Payment{Status: entity.PaymentStatusPending, MaxRetries: 3}
	rule, _ := ValidatePayment(p, PaymentProcess)
	assert.Equal(t, rule.Has(EffectChargeProvider), true)

	p.Status = entity.PaymentStatusFailed
	rule, _ = ValidatePayment(p, PaymentRetry)
	assert.Equal(t, rule.Has(EffectReprocess), true)

	p.Status = entity.PaymentStatusCompleted
	rule, _ = ValidatePayment(p, PaymentRefund)
	assert.Equal(t, rule.Has(EffectIssueRefund), true)
}
