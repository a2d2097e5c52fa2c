package handler

import (
	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/models"
)

func (h *Handler) MyJobs(c *gin.Context) {
	ok(c, h.Complaints.VendorJobs(c.Request.Context(), currentIdentity(c)))
}

func (h *Handler) AcceptJob(c *gin.Context) {
	out, err := h.Complaints.AcceptJob(c.Request.Context(), currentIdentity(c), models.FlexID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}

func (h *Handler) CompleteJob(c *gin.Context) {
	out, err := h.Complaints.CompleteJob(c.Request.Context(), currentIdentity(c), models.FlexID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}

func (h *Handler) AttachInvoice(c *gin.Context) {
	var in complaint.InvoiceInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.Complaints.AttachInvoice(c.Request.Context(), currentIdentity(c), models.FlexID(c.Param("id")), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}
