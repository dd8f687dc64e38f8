// Package gateway holds the outbound clients of the lifecycle core: the task
// service, the payment provider and the notification service. Every call is
// rate limited and bounded by a timeout; a timeout counts as a failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

type TaskInfo struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Status     TaskStatus      `json:"status"`
	Budget     decimal.Decimal `json:"budget"`
	Title      string          `json:"title"`
}

// OpenForBidding reports whether new bids may be placed on the task.
func (t *TaskInfo) OpenForBidding() bool {
	return t.Status == TaskStatusOpen
}

type TaskGateway interface {
	ValidateTask(ctx context.Context, taskID uuid.UUID) bool
	// GetTaskInfo returns nil, nil when the task does not exist.
	GetTaskInfo(ctx context.Context, taskID uuid.UUID) (*TaskInfo, error)
	// UpdateTaskStatus is best effort: failures are logged, never returned.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, assigneeID *uuid.UUID)
}

type PaymentProvider interface {
	Name() string
	// Charge returns the provider transaction id.
	Charge(ctx context.Context, payment *entity.Payment) (string, error)
	Refund(ctx context.Context, original, refund *entity.Payment) (string, error)
}

type Notification struct {
	RecipientID uuid.UUID         `json:"recipient_id"`
	Event       string            `json:"event"`
	Subject     string            `json:"subject"`
	Data        map[string]string `json:"data,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

var errNotFound = errors.New("resource not found")

// client is the shared JSON-over-HTTP plumbing of the gateways.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	timeout time.Duration
}

const defaultTimeout = 5 * time.Second

func newClient(baseURL string, cfg utils.GatewayConfig) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: server error: %s", method, path, resp.Status)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: client request error: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
