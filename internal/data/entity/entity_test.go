package entity

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/shopspring/decimal"
)

func TestServiceFeeFor(t *testing.T) {
	tests := []struct {
		amount  string
		percent string
		fee     string
		net     string
	}{
		{"100", "10", "10.00", "90.00"},
		{"99.99", "10", "10.00", "89.99"},
		{"45.50", "7.5", "3.41", "42.09"},
		{"0.01", "10", "0.00", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"@"+tt.percent, func(t *testing.T) {
			p := &Payment{Amount: decimal.RequireFromString(tt.amount)}
			p.ApplyFee(ServiceFeeFor(p.Amount, decimal.RequireFromString(tt.percent)))

			assert.Equal(t, p.ServiceFee.StringFixed(2), tt.fee)
			assert.Equal(t, p.NetAmount.StringFixed(2), tt.net)
			assert.Equal(t, p.NetAmount.Equal(p.Amount.Sub(p.ServiceFee)), true)
		})
	}
}

func TestAmountProblem(t *testing.T) {
	tests := []struct {
		amount string
		ok     bool
	}{
		{"0.01", true},
		{"10.50", true},
		{"10.500", true},
		{"999999999999.99", true},
		{"0", false},
		{"-1", false},
		{"10.005", false},
		{"0.001", false},
		{"1000000000000", false},
		{"999999999999.999", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, AmountProblem(decimal.RequireFromString(tt.amount)) == "", tt.ok)
		})
	}
}

func TestPaymentStatusIsFinal(t *testing.T) {
	final := map[PaymentStatus]bool{
		PaymentStatusPending:       false,
		PaymentStatusProcessing:    false,
		PaymentStatusFailed:        false,
		PaymentStatusRetryPending:  false,
		PaymentStatusRefundPending: false,
		PaymentStatusCompleted:     true,
		PaymentStatusCancelled:     true,
		PaymentStatusRefunded:      true,
		PaymentStatusRefundFailed:  true,
	}

	for status, want := range final {
		assert.Equal(t, status.IsFinal(), want)
	}
}

func TestBidMoveToStampsTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &Bid{Status: BidStatusPending}

	b.MoveTo(BidStatusAccepted, now)
	assert.Equal(t, b.Status, BidStatusAccepted)
	assert.Equal(t, *b.AcceptedAt, now)
	assert.Equal(t, b.UpdatedAt, now)
	assert.Equal(t, b.RejectedAt == nil, true)

	b.MoveTo(BidStatusWithdrawn, now.Add(time.Hour))
	assert.Equal(t, *b.WithdrawnAt, now.Add(time.Hour))
}

func TestPaymentCanRetry(t *testing.T) {
	p := &Payment{MaxRetries: DefaultMaxRetries}
	for i := 0; i < DefaultMaxRetries; i++ {
		assert.Equal(t, p.CanRetry(), true)
		p.RetryCount++
	}
	assert.Equal(t, p.CanRetry(), false)
}
