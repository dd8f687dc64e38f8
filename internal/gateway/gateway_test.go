package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func testConfig(url string) utils.GatewayConfig {
	return utils.GatewayConfig{
		TaskServiceURL:  url,
		ProviderURL:     url,
		NotificationURL: url,
		Timeout:         200 * time.Millisecond,
		RatePerSecond:   100,
		RateBurst:       10,
	}
}

func TestTaskGatewayGetTaskInfo(t *testing.T) {
	taskID := uuid.New()
	customerID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/tasks/"+taskID.String() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(TaskInfo{
			ID:         taskID,
			CustomerID: customerID,
			Status:     TaskStatusOpen,
			Budget:     decimal.RequireFromString("150.00"),
		})
	}))
	defer srv.Close()

	gw := NewTaskGateway(testConfig(srv.URL), zap.NewNop())

	task, err := gw.GetTaskInfo(context.Background(), taskID)
	assert.Equal(t, err, nil)
	assert.Equal(t, task.CustomerID, customerID)
	assert.Equal(t, task.OpenForBidding(), true)
	assert.Equal(t, gw.ValidateTask(context.Background(), taskID), true)

	missing, err := gw.GetTaskInfo(context.Background(), uuid.New())
	assert.Equal(t, err, nil)
	assert.Equal(t, missing == nil, true)
	assert.Equal(t, gw.ValidateTask(context.Background(), uuid.New()), false)
}

func TestTaskGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	gw := NewTaskGateway(cfg, zap.NewNop())

	start := time.Now()
	_, err := gw.GetTaskInfo(context.Background(), uuid.New())
	assert.NotEqual(t, err, nil)
	assert.Equal(t, time.Since(start) < 500*time.Millisecond, true)
}

func TestTaskGatewayUpdateStatusSwallowsFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, r.Method, http.MethodPatch)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewTaskGateway(testConfig(srv.URL), zap.NewNop())
	assignee := uuid.New()
	gw.UpdateTaskStatus(context.Background(), uuid.New(), TaskStatusInProgress, &assignee)

	assert.Equal(t, atomic.LoadInt32(&calls), int32(1))
}

func TestHTTPProviderCharge(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       providerResponse
		wantTxID   string
		wantFailed bool
	}{
		{name: "approved", status: http.StatusOK, body: providerResponse{TransactionID: "tx_1", Status: "succeeded"}, wantTxID: "tx_1"},
		{name: "declined", status: http.StatusOK, body: providerResponse{Status: "failed", Message: "card declined"}, wantFailed: true},
		{name: "server error", status: http.StatusBadGateway, wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, r.URL.Path, "/charges")

				var req chargeRequest
				json.NewDecoder(r.Body).Decode(&req)
				assert.Equal(t, req.Amount.String(), "100")

				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			p := NewHTTPProvider(testConfig(srv.URL), zap.NewNop())
			payment := &entity.Payment{
				Base:     entity.Base{ID: uuid.New()},
				Amount:   decimal.NewFromInt(100),
				Currency: "USD",
			}

			txID, err := p.Charge(context.Background(), payment)
			if tt.wantFailed {
				assert.Equal(t, apperr.Is(err, apperr.ExternalFailure), true)
				return
			}
			assert.Equal(t, err, nil)
			assert.Equal(t, txID, tt.wantTxID)
		})
	}
}

func TestHTTPProviderRefundSendsPositiveAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req refundRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, req.Amount.String(), "40")
		assert.Equal(t, req.OriginalTransactionID, "tx_orig")
		json.NewEncoder(w).Encode(providerResponse{TransactionID: "re_1", Status: "succeeded"})
	}))
	defer srv.Close()

	txOrig := "tx_orig"
	original := &entity.Payment{Base: entity.Base{ID: uuid.New()}, ExternalTransactionID: &txOrig}
	refund := &entity.Payment{Base: entity.Base{ID: uuid.New()}, Amount: decimal.NewFromInt(-40)}

	txID, err := NewHTTPProvider(testConfig(srv.URL), zap.NewNop()).Refund(context.Background(), original, refund)
	assert.Equal(t, err, nil)
	assert.Equal(t, txID, "re_1")
}

func TestSimulatedProvider(t *testing.T) {
	p := NewProvider(utils.GatewayConfig{SimulatedProvider: true}, zap.NewNop())
	assert.Equal(t, p.Name(), "simulated")

	txID, err := p.Charge(context.Background(), &entity.Payment{Base: entity.Base{ID: uuid.New()}})
	assert.Equal(t, err, nil)
	assert.NotEqual(t, txID, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Charge(ctx, &entity.Payment{Base: entity.Base{ID: uuid.New()}})
	assert.Equal(t, apperr.Is(err, apperr.ExternalFailure), true)
}

func TestNotifierWithoutURLLogsOnly(t *testing.T) {
	n := NewNotifier(utils.GatewayConfig{}, zap.NewNop())
	err := n.Notify(context.Background(), Notification{RecipientID: uuid.New(), Event: "bid.accepted"})
	assert.Equal(t, err, nil)
}
