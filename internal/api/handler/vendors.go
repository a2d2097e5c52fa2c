package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/complaint"
)

func (h *Handler) ListVendors(c *gin.Context) {
	ok(c, h.Complaints.ListVendors(c.Request.Context()))
}

func (h *Handler) AddVendor(c *gin.Context) {
	var in complaint.VendorInput
	if !h.bind(c, &in) {
		return
	}
	v, err := h.Complaints.AddVendor(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, v)
}

// RecommendVendors ranks vendors for ?ids=a,b; without ids every vendor is
// ranked on availability, rating and cost alone.
func (h *Handler) RecommendVendors(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(c, apperr.Validation("limit must be a non-negative integer", raw))
			return
		}
		limit = n
	}
	ranked, err := h.Complaints.Recommend(c.Request.Context(), splitIDs(c.Query("ids")), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, ranked)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var in availabilityRequest
	if !h.bind(c, &in) {
		return
	}
	identity := currentIdentity(c)
	if identity.VendorID == "" {
		h.fail(c, apperr.Forbidden("account is not linked to a vendor"))
		return
	}
	v, err := h.Complaints.SetAvailability(c.Request.Context(), identity.VendorID, *in.Available)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, v)
}
