package service

import "github.com/escolaware/escola-api/internal/models"

// paginationFor mirrors the clamping done by the repository layer so the
// envelope reflects the page actually served.
func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
