package wire

import (
	"task-marketplace/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", paymentHandler.Create)
		r.Get("/", paymentHandler.List)
		r.Get("/service-fees", paymentHandler.ServiceFees)
		r.Get("/transactions/{transactionID}", paymentHandler.GetByExternalTransactionID)
		r.Get("/{id}", paymentHandler.GetByID)

		// Lifecycle transitions
		r.Post("/{id}/process", paymentHandler.Process)
		r.Post("/{id}/complete", paymentHandler.Complete)
		r.Post("/{id}/fail", paymentHandler.Fail)
		r.Post("/{id}/retry", paymentHandler.Retry)
		r.Post("/{id}/cancel", paymentHandler.Cancel)
		r.Post("/{id}/refund", paymentHandler.Refund)
	})

	r.Get("/api/customers/{customerID}/payments/total", paymentHandler.CustomerTotal)
	r.Get("/api/taskers/{taskerID}/payments/earnings", paymentHandler.TaskerEarnings)
}
