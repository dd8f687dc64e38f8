package usecase

import (
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/event"
	"task-marketplace/internal/gateway"
	"task-marketplace/internal/worker"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateways groups the outbound dependencies of the lifecycle managers.
type Gateways struct {
	Tasks    gateway.TaskGateway
	Provider gateway.PaymentProvider
}

type Service struct {
	Bid     BidService
	Payment PaymentService
}

func NewService(repo *repository.Repository, gw Gateways, bus *event.Bus, jobs worker.Enqueuer, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Bid:     NewBidService(repo, gw.Tasks, bus, config.Bidding, log),
		Payment: NewPaymentService(repo, gw.Provider, bus, jobs, config.Payment, log),
	}
}

type clock func() time.Time

func checkAmount(amount decimal.Decimal) error {
	if problem := entity.AmountProblem(amount); problem != "" {
		return apperr.ValidationErr("invalid amount: "+problem, map[string]string{"Amount": problem})
	}
	return nil
}
