package handler

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/textutil"
)

// withRenderedDescription adds descriptionHtml, the sanitised markdown
// rendering of the description, to the response record.
func withRenderedDescription(c models.Complaint) models.Complaint {
	if c.Description == "" {
		return c
	}
	html, err := textutil.RenderDescription(c.Description)
	if err != nil {
		return c
	}
	raw, err := json.Marshal(html)
	if err != nil {
		return c
	}
	out := c.Clone()
	if out.Extra == nil {
		out.Extra = make(map[string]json.RawMessage, 1)
	}
	out.Extra["descriptionHtml"] = raw
	return out
}

func (h *Handler) SubmitComplaint(c *gin.Context) {
	var in complaint.SubmitInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.Complaints.Submit(c.Request.Context(), currentIdentity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, out)
}

func (h *Handler) MyComplaints(c *gin.Context) {
	ok(c, h.Complaints.ListForResident(c.Request.Context(), currentIdentity(c)))
}

func (h *Handler) ListComplaints(c *gin.Context) {
	f := complaint.ListFilter{
		Category: c.Query("category"),
		Block:    c.Query("block"),
		Urgency:  c.Query("urgency"),
		Status:   c.Query("status"),
		Query:    c.Query("q"),
	}
	ok(c, h.Complaints.ListComplaints(c.Request.Context(), f))
}

func (h *Handler) GetComplaint(c *gin.Context) {
	out, err := h.Complaints.Get(c.Request.Context(), models.FlexID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, withRenderedDescription(out))
}

func (h *Handler) Clusters(c *gin.Context) {
	ok(c, h.Complaints.Clusters(c.Request.Context(), c.DefaultQuery("mode", complaint.ClusterByCategoryBlock)))
}

type idsRequest struct {
	ComplaintIDs []models.FlexID `json:"complaintIds" binding:"required,min=1"`
}

func (h *Handler) AutoLabel(c *gin.Context) {
	var in idsRequest
	if !h.bind(c, &in) {
		return
	}
	out, err := h.Complaints.AutoLabel(c.Request.Context(), in.ComplaintIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}

type assignRequest struct {
	VendorID string `json:"vendorId" binding:"required"`
}

func (h *Handler) AssignVendor(c *gin.Context) {
	var in assignRequest
	if !h.bind(c, &in) {
		return
	}
	out, err := h.Complaints.AssignVendor(c.Request.Context(), models.FlexID(c.Param("id")), in.VendorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}

func (h *Handler) MarkResolved(c *gin.Context) {
	out, err := h.Complaints.MarkResolved(c.Request.Context(), models.FlexID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, out)
}

type ratingRequest struct {
	Score int `json:"score" binding:"required"`
}

func (h *Handler) RateVendor(c *gin.Context) {
	var in ratingRequest
	if !h.bind(c, &in) {
		return
	}
	rating, err := h.Complaints.RateVendor(c.Request.Context(), currentIdentity(c), models.FlexID(c.Param("id")), in.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"rating": rating})
}

// splitIDs parses "a,b,c" query values.
func splitIDs(raw string) []models.FlexID {
	var ids []models.FlexID
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, models.FlexID(p))
		}
	}
	return ids
}
