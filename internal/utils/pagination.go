// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
}

type PaginationResult struct {
	Data       interface{}
	Count      int
	Pagination Pagination
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))

	return NormalizePagination(page, limit)
}

// NormalizePagination falls back to page 1 and the default limit for out-of-range values.
func NormalizePagination(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

func NewPagination(total int64, params PaginationParams) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	return Pagination{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		Limit:       params.Limit,
	}
}

func SetPaginationHeaders(c *gin.Context, p Pagination) {
	c.Header("X-Total-Count", strconv.FormatInt(p.TotalCount, 10))
	c.Header("X-Page", strconv.Itoa(p.CurrentPage))
	c.Header("X-Per-Page", strconv.Itoa(p.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(p.TotalPages))
}
