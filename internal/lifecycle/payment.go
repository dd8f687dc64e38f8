package lifecycle

import (
	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"
)

type PaymentAction string

const (
	PaymentProcess       PaymentAction = "process"
	PaymentComplete      PaymentAction = "complete"
	PaymentFail          PaymentAction = "fail"
	PaymentRetry         PaymentAction = "retry"
	PaymentCancel        PaymentAction = "cancel"
	PaymentRefund        PaymentAction = "refund"
	PaymentRefundSucceed PaymentAction = "refund_succeed"
	PaymentRefundFail    PaymentAction = "refund_fail"
)

type PaymentEffect string

const (
	EffectChargeProvider PaymentEffect = "charge_provider"
	// EffectReprocess re-enters process right after the retry is persisted.
	EffectReprocess PaymentEffect = "reprocess"
	// EffectIssueRefund creates a REFUND record and calls the provider.
	EffectIssueRefund PaymentEffect = "issue_refund"
)

type PaymentRule struct {
	To      entity.PaymentStatus
	Effects []PaymentEffect
	// NeedsRetryBudget requires RetryCount < MaxRetries.
	NeedsRetryBudget bool
}

type paymentKey struct {
	from   entity.PaymentStatus
	action PaymentAction
}

// PROCESSING only leaves through complete or fail, so an in-flight charge
// always runs to its outcome. Refunding leaves the original COMPLETED.
var paymentTransitions = map[paymentKey]PaymentRule{
	{entity.PaymentStatusPending, PaymentProcess}:      {To: entity.PaymentStatusProcessing, Effects: []PaymentEffect{EffectChargeProvider}},
	{entity.PaymentStatusRetryPending, PaymentProcess}: {To: entity.PaymentStatusProcessing, Effects: []PaymentEffect{EffectChargeProvider}},

	{entity.PaymentStatusProcessing, PaymentComplete}: {To: entity.PaymentStatusCompleted},

	{entity.PaymentStatusPending, PaymentFail}:    {To: entity.PaymentStatusFailed},
	{entity.PaymentStatusProcessing, PaymentFail}: {To: entity.PaymentStatusFailed},

	{entity.PaymentStatusFailed, PaymentRetry}: {
		To:               entity.PaymentStatusRetryPending,
		Effects:          []PaymentEffect{EffectReprocess},
		NeedsRetryBudget: true,
	},

	{entity.PaymentStatusPending, PaymentCancel}:      {To: entity.PaymentStatusCancelled},
	{entity.PaymentStatusFailed, PaymentCancel}:       {To: entity.PaymentStatusCancelled},
	{entity.PaymentStatusRetryPending, PaymentCancel}: {To: entity.PaymentStatusCancelled},

	{entity.PaymentStatusCompleted, PaymentRefund}: {To: entity.PaymentStatusCompleted, Effects: []PaymentEffect{EffectIssueRefund}},

	{entity.PaymentStatusRefundPending, PaymentRefundSucceed}: {To: entity.PaymentStatusRefunded},
	{entity.PaymentStatusRefundPending, PaymentRefundFail}:    {To: entity.PaymentStatusRefundFailed},
}

// ValidatePayment looks up the move in the transition table and checks its guards.
func ValidatePayment(p *entity.Payment, action PaymentAction) (PaymentRule, error) {
	if action == PaymentCancel && p.Status.IsFinal() {
		return PaymentRule{}, apperr.InvalidOperationErr("payment %s is already final (%s)", p.ID, p.Status)
	}

	rule, ok := paymentTransitions[paymentKey{p.Status, action}]
	if !ok {
		return PaymentRule{}, apperr.InvalidOperationErr("cannot %s a payment in status %s", action, p.Status)
	}

	if rule.NeedsRetryBudget && !p.CanRetry() {
		return PaymentRule{}, apperr.InvalidOperationErr("payment %s exhausted its retries (%d/%d)", p.ID, p.RetryCount, p.MaxRetries)
	}

	return rule, nil
}

func (r PaymentRule) Has(effect PaymentEffect) bool {
	for _, e := range r.Effects {
		if e == effect {
			return true
		}
	}
	return false
}
