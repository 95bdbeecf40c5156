package handlers

import (
	"time"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
	"github.com/tbourn/go-lifetrack-backend/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	p := utils.Paginate(page, pageSize, services.DefaultPageSize, services.MaxPageSize)
	pages := utils.TotalPages(total, p.PageSize)
	return Pagination{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}

// ListGoalsResponse wraps a page of goals and pagination information.
type ListGoalsResponse struct {
	Goals      []domain.Goal `json:"goals"`
	Pagination Pagination    `json:"pagination"`
}

// ListProgressResponse wraps a page of progress entries.
type ListProgressResponse struct {
	Entries    []domain.ProgressEntry `json:"entries"`
	Pagination Pagination             `json:"pagination"`
}

// ProgressResponse is returned when progress is logged. Goal reflects the
// updated current value and status.
type ProgressResponse struct {
	Entry *domain.ProgressEntry `json:"entry"`
	Goal  *domain.Goal          `json:"goal"`
}

// ErrorResponse documents the failure envelope in the OpenAPI spec.
type ErrorResponse struct {
	Success bool               `json:"success" example:"false"`
	Error   envelope.ErrorBody `json:"error"`
	Meta    envelope.Meta      `json:"meta"`
}

// Sanitized-value readers. The validation middleware has already converted
// each value to its schema type, so a wrong type only means "absent".

func optString(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func optInt(m map[string]any, key string) *int {
	n, ok := m[key].(int64)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func optFloat(m map[string]any, key string) *float64 {
	f, ok := m[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

func optTime(m map[string]any, key string) *time.Time {
	t, ok := m[key].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

// isNull reports whether key was sent as an explicit null.
func isNull(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v == nil
}

func intOr(m map[string]any, key string, def int) int {
	if p := optInt(m, key); p != nil {
		return *p
	}
	return def
}

func stringOr(m map[string]any, key, def string) string {
	if p := optString(m, key); p != nil {
		return *p
	}
	return def
}
