// Package handler exposes the complaint workflow over HTTP and streams
// change events over WebSocket.
package handler

import (
	"log/slog"

	"servicepulse/backend/internal/auth"
	"servicepulse/backend/internal/changehub"
	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/logger"
)

type Handler struct {
	Hub        *changehub.Hub
	Complaints *complaint.Service
	Auth       *auth.Service
	Policy     *auth.Policy
	log        *slog.Logger
}

func NewHandler(hub *changehub.Hub, complaints *complaint.Service, authSvc *auth.Service, policy *auth.Policy) *Handler {
	return &Handler{
		Hub:        hub,
		Complaints: complaints,
		Auth:       authSvc,
		Policy:     policy,
		log:        logger.WithComponent("api"),
	}
}
