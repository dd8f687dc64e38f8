package request

import "task-marketplace/pkg/utils"

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// Normalize clamps Page and PerPage in place so validation only rejects
// what the clamp cannot fix.
func (p *PaginatedRequest) Normalize() utils.Page {
	page := utils.NewPage(p.Page, p.PerPage)
	p.Page, p.PerPage = page.Number, page.Size
	return page
}
