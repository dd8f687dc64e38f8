package wire

import (
	"context"
	"fmt"
	"net/http"

	"task-marketplace/internal/adaptor"
	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/event"
	"task-marketplace/internal/gateway"
	"task-marketplace/internal/notification"
	"task-marketplace/internal/reconciler"
	"task-marketplace/internal/usecase"
	"task-marketplace/internal/worker"
	"task-marketplace/pkg/middleware"
	"task-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const memoryQueueCapacity = 1024

// App holds the wired process: HTTP router plus the background workers the
// serve command starts and stops.
type App struct {
	Router     *chi.Mux
	Service    *usecase.Service
	Queue      worker.Queue
	Pool       *worker.Pool
	Reconciler *reconciler.Reconciler

	bus       *event.Bus
	notifySub string
}

// Close detaches the notification subscriber so late events are not queued,
// then closes the job queue.
func (a *App) Close() error {
	if a.bus != nil {
		a.bus.Unsubscribe(a.notifySub)
	}
	return a.Queue.Close()
}

// Wiring builds every dependency from config. The caller must Close the
// returned App.
func Wiring(ctx context.Context, repo *repository.Repository, config *utils.Config, logger *zap.Logger) (*App, error) {
	queue, err := newQueue(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	gateways := usecase.Gateways{
		Tasks:    gateway.NewTaskGateway(config.Gateway, logger),
		Provider: gateway.NewProvider(config.Gateway, logger),
	}

	bus := event.NewBus(logger)
	notifySub := notification.NewSubscriber(queue, logger).Attach(bus)

	service := usecase.NewService(repo, gateways, bus, queue, config, logger)

	pool := worker.NewPool(queue, config.Payment.Workers, logger)
	pool.Register(worker.KindProcessPayment, usecase.ProcessPaymentJob(service.Payment, logger))
	pool.Register(worker.KindSendNotification, notification.Deliver(gateway.NewNotifier(config.Gateway, logger)))

	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:     setupRouter(handler, logger),
		Service:    service,
		Queue:      queue,
		Pool:       pool,
		Reconciler: reconciler.New(repo, service, config.Bidding, config.Payment, logger),
		bus:        bus,
		notifySub:  notifySub,
	}, nil
}

// newQueue uses redis when an address is configured, otherwise an in-process
// queue whose jobs are lost on restart.
func newQueue(ctx context.Context, config *utils.Config, logger *zap.Logger) (worker.Queue, error) {
	if config.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory job queue")
		return worker.NewMemoryQueue(memoryQueueCapacity), nil
	}

	rdb, err := worker.NewRedisClient(ctx, config.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("Redis job queue connected", zap.String("addr", config.Redis.Addr))

	return worker.NewRedisQueue(rdb, config.Redis.QueueKey), nil
}

func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Actor(logger))

		wireBid(r, handler.Bid)
		wirePayment(r, handler.Payment)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
