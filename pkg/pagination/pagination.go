package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/common"
)

const (
	// MaxLimit is the maximum number of items per page
	MaxLimit = 200
)

// Params represents pagination parameters. A zero Limit means no paging.
type Params struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// Enabled reports whether the caller asked for a page.
func (p Params) Enabled() bool {
	return p.Limit > 0
}

// ParseParams reads limit and offset from the query. Listings are
// unpaged unless limit is given.
func ParseParams(c *gin.Context) (Params, error) {
	var params Params

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Params{}, common.NewBadRequestError("limit must be a positive integer", err)
		}
		params.Limit = min(limit, MaxLimit)
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Params{}, common.NewBadRequestError("offset must not be negative", err)
		}
		params.Offset = offset
	}

	return params, nil
}

// Page returns the window of items selected by p. The result is never nil.
func Page[T any](items []T, p Params) []T {
	if !p.Enabled() {
		if items == nil {
			return []T{}
		}
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// BuildMeta creates pagination metadata for responses
func BuildMeta(p Params, total int) *common.Meta {
	meta := &common.Meta{
		Limit:  p.Limit,
		Offset: p.Offset,
		Total:  total,
	}

	// Calculate total pages
	if p.Limit > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}

	return meta
}

// HasMore checks if there are more items available
func HasMore(p Params, total int) bool {
	return p.Enabled() && p.Offset+p.Limit < total
}
