package request

import "github.com/shopspring/decimal"

type CreateBidRequest struct {
	TaskID         string          `json:"task_id" validate:"required,uuid"`
	Amount         decimal.Decimal `json:"amount"`
	Message        string          `json:"message" validate:"max=2000"`
	EstimatedHours int             `json:"estimated_hours" validate:"min=0,max=10000"`
}

type UpdateBidRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Message        string          `json:"message" validate:"max=2000"`
	EstimatedHours int             `json:"estimated_hours" validate:"min=0,max=10000"`
}

type CancelBidRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type BidListRequest struct {
	PaginatedRequest
	Status *string `json:"status,omitempty"`
}
