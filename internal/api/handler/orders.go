package handler

import (
	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/complaint"
)

func (h *Handler) ListOrders(c *gin.Context) {
	ok(c, h.Complaints.ListBulkOrders(c.Request.Context()))
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var in complaint.BulkOrderInput
	if !h.bind(c, &in) {
		return
	}
	order, err := h.Complaints.CreateBulkOrder(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, order)
}
