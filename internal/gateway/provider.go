package gateway

import (
	"context"
	"fmt"
	"net/http"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type chargeRequest struct {
	PaymentID      uuid.UUID            `json:"payment_id"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       string               `json:"currency"`
	Method         entity.PaymentMethod `json:"method"`
	IdempotencyKey string               `json:"idempotency_key"`
}

type refundRequest struct {
	RefundID              uuid.UUID       `json:"refund_id"`
	OriginalTransactionID string          `json:"original_transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Reason                string          `json:"reason,omitempty"`
	IdempotencyKey        string          `json:"idempotency_key"`
}

type providerResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

type httpProvider struct {
	*client
	log *zap.Logger
}

func NewHTTPProvider(cfg utils.GatewayConfig, log *zap.Logger) PaymentProvider {
	return &httpProvider{
		client: newClient(cfg.ProviderURL, cfg),
		log:    log.With(zap.String("gateway", "provider")),
	}
}

func (p *httpProvider) Name() string { return "http" }

func (p *httpProvider) Charge(ctx context.Context, payment *entity.Payment) (string, error) {
	req := chargeRequest{
		PaymentID:  payment.ID,
		CustomerID: payment.CustomerID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Method:     payment.PaymentMethod,
		// retries of the same payment are distinct attempts for the provider
		IdempotencyKey: fmt.Sprintf("%s:%d", payment.ID, payment.RetryCount),
	}

	var resp providerResponse
	if err := p.do(ctx, http.MethodPost, "/charges", req, &resp); err != nil {
		return "", apperr.ExternalFailureErr(err, "charge payment %s", payment.ID)
	}
	return p.transactionID(resp, "charge", payment.ID)
}

func (p *httpProvider) Refund(ctx context.Context, original, refund *entity.Payment) (string, error) {
	if original.ExternalTransactionID == nil {
		return "", apperr.InvalidOperationErr("payment %s has no provider transaction to refund", original.ID)
	}

	req := refundRequest{
		RefundID:              refund.ID,
		OriginalTransactionID: *original.ExternalTransactionID,
		Amount:                refund.Amount.Neg(),
		Currency:              refund.Currency,
		Reason:                refund.Metadata[entity.MetaRefundReason],
		IdempotencyKey:        refund.ID.String(),
	}

	var resp providerResponse
	if err := p.do(ctx, http.MethodPost, "/refunds", req, &resp); err != nil {
		return "", apperr.ExternalFailureErr(err, "refund payment %s", original.ID)
	}
	return p.transactionID(resp, "refund", refund.ID)
}

func (p *httpProvider) transactionID(resp providerResponse, op string, id uuid.UUID) (string, error) {
	if resp.Status == "failed" || resp.TransactionID == "" {
		reason := resp.Message
		if reason == "" {
			reason = "no transaction id returned"
		}
		p.log.Warn("Provider declined", zap.String("op", op), zap.String("payment_id", id.String()), zap.String("reason", reason))
		return "", apperr.ExternalFailureErr(nil, "provider declined %s: %s", op, reason)
	}
	return resp.TransactionID, nil
}

// simulatedProvider approves every request. Used for local runs.
type simulatedProvider struct {
	log *zap.Logger
}

func NewSimulatedProvider(log *zap.Logger) PaymentProvider {
	return &simulatedProvider{log: log.With(zap.String("gateway", "simulated_provider"))}
}

func (p *simulatedProvider) Name() string { return "simulated" }

func (p *simulatedProvider) Charge(ctx context.Context, payment *entity.Payment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ExternalFailureErr(err, "charge payment %s", payment.ID)
	}
	txID := "sim_ch_" + uuid.NewString()
	p.log.Debug("Simulated charge", zap.String("payment_id", payment.ID.String()), zap.String("transaction_id", txID))
	return txID, nil
}

func (p *simulatedProvider) Refund(ctx context.Context, original, refund *entity.Payment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ExternalFailureErr(err, "refund payment %s", original.ID)
	}
	txID := "sim_re_" + uuid.NewString()
	p.log.Debug("Simulated refund", zap.String("payment_id", refund.ID.String()), zap.String("transaction_id", txID))
	return txID, nil
}

// NewProvider picks the simulated provider when configured, else the HTTP one.
func NewProvider(cfg utils.GatewayConfig, log *zap.Logger) PaymentProvider {
	if cfg.SimulatedProvider {
		return NewSimulatedProvider(log)
	}
	return NewHTTPProvider(cfg, log)
}
