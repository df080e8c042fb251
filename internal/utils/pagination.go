package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams extracts page and page_size from the query string.
// Page sizes above the maximum are clamped, invalid values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(constants.DefaultPageSize)))
	if err != nil || pageSize < constants.MinPageSize {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// TotalPages returns the number of pages needed for count rows.
func (p PaginationParams) TotalPages(count int64) int {
	if p.PageSize <= 0 || count == 0 {
		return 0
	}
	return int((count + int64(p.PageSize) - 1) / int64(p.PageSize))
}
