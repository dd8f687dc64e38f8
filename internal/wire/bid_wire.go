package wire

import (
	"task-marketplace/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBid(r chi.Router, bidHandler *adaptor.BidHandler) {
	r.Route("/api/bids", func(r chi.Router) {
		r.Post("/", bidHandler.Create)
		r.Get("/{id}", bidHandler.GetByID)
		r.Put("/{id}", bidHandler.Update)

		// Lifecycle transitions
		r.Post("/{id}/accept", bidHandler.Accept)
		r.Post("/{id}/reject", bidHandler.Reject)
		r.Post("/{id}/withdraw", bidHandler.Withdraw)
		r.Post("/{id}/complete", bidHandler.Complete)
		r.Post("/{id}/cancel", bidHandler.Cancel)
	})

	r.Get("/api/tasks/{taskID}/bids", bidHandler.ListByTask)
	r.Get("/api/tasks/{taskID}/bids/count", bidHandler.CountByTask)
	r.Get("/api/taskers/{taskerID}/bids", bidHandler.ListByTasker)
	r.Get("/api/customers/{customerID}/bids", bidHandler.ListByCustomer)
}
