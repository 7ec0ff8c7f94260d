package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive integer path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// bindDateRange reads from/to query parameters and rejects inverted ranges
func bindDateRange(c *gin.Context) (DateRangeQuery, bool) {
	var q DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid date range: "+err.Error())
		return q, false
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		RespondBadRequest(c, "Invalid date range: to is before from")
		return q, false
	}
	return q, true
}
