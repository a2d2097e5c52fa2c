package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/analysis"
	"servicepulse/backend/internal/apperr"
)

// Analytics accepts ?category=&from=&to= with dates as YYYY-MM-DD.
func (h *Handler) Analytics(c *gin.Context) {
	f := analysis.Filter{Category: c.Query("category")}

	var err error
	if f.From, err = parseDay(c.Query("from"), false); err != nil {
		h.fail(c, apperr.Validation("from must be YYYY-MM-DD", c.Query("from")))
		return
	}
	if f.To, err = parseDay(c.Query("to"), true); err != nil {
		h.fail(c, apperr.Validation("to must be YYYY-MM-DD", c.Query("to")))
		return
	}
	ok(c, h.Complaints.Analytics(c.Request.Context(), f))
}

// parseDay returns the start of the day, or its last instant when endOfDay.
func parseDay(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}
