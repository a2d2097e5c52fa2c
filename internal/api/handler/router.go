package handler

import (
	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/auth"
)

// NewRouter wires every route onto a fresh engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		ok(c, gin.H{"status": "ok", "clients": h.Hub.ClientCount()})
	})
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api")
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", h.Authenticate())
	authed.GET("/me", h.Me)

	authed.POST("/complaints", h.Authorize(auth.ResourceComplaints, auth.ActionCreate), h.SubmitComplaint)
	authed.GET("/complaints/mine", h.Authorize(auth.ResourceComplaints, auth.ActionReadOwn), h.MyComplaints)
	authed.GET("/complaints", h.Authorize(auth.ResourceComplaints, auth.ActionRead), h.ListComplaints)
	authed.GET("/complaints/clusters", h.Authorize(auth.ResourceComplaints, auth.ActionRead), h.Clusters)
	authed.POST("/complaints/label", h.Authorize(auth.ResourceComplaints, auth.ActionUpdate), h.AutoLabel)
	authed.GET("/complaints/:id", h.Authorize(auth.ResourceComplaints, auth.ActionRead), h.GetComplaint)
	authed.POST("/complaints/:id/assign", h.Authorize(auth.ResourceComplaints, auth.ActionAssign), h.AssignVendor)
	authed.POST("/complaints/:id/resolve", h.Authorize(auth.ResourceComplaints, auth.ActionUpdate), h.MarkResolved)
	authed.POST("/complaints/:id/rating", h.Authorize(auth.ResourceRatings, auth.ActionCreate), h.RateVendor)

	authed.GET("/orders", h.Authorize(auth.ResourceOrders, auth.ActionRead), h.ListOrders)
	authed.POST("/orders", h.Authorize(auth.ResourceOrders, auth.ActionCreate), h.CreateOrder)

	authed.GET("/vendors", h.Authorize(auth.ResourceVendors, auth.ActionRead), h.ListVendors)
	authed.POST("/vendors", h.Authorize(auth.ResourceVendors, auth.ActionCreate), h.AddVendor)
	authed.GET("/vendors/recommend", h.Authorize(auth.ResourceVendors, auth.ActionRead), h.RecommendVendors)
	authed.POST("/vendors/me/availability", h.Authorize(auth.ResourceVendors, auth.ActionUpdate), h.SetAvailability)

	authed.GET("/jobs", h.Authorize(auth.ResourceJobs, auth.ActionRead), h.MyJobs)
	authed.POST("/jobs/:id/accept", h.Authorize(auth.ResourceJobs, auth.ActionUpdate), h.AcceptJob)
	authed.POST("/jobs/:id/complete", h.Authorize(auth.ResourceJobs, auth.ActionUpdate), h.CompleteJob)
	authed.POST("/jobs/:id/invoice", h.Authorize(auth.ResourceJobs, auth.ActionUpdate), h.AttachInvoice)

	authed.GET("/analytics", h.Authorize(auth.ResourceAnalytics, auth.ActionRead), h.Analytics)

	return r
}
