package changehub

import "servicepulse/backend/internal/models"

// Client is one connected view (e.g. a WebSocket dashboard) that re-reads
// its data whenever the hub pushes a change event.
type Client interface {
	// GetClientID returns the unique identifier of this connection.
	GetClientID() string
	// GetIdentity returns the verified session the view belongs to.
	GetIdentity() models.Identity

	// GetSendChannel returns the channel the hub pushes change events into.
	// It is a send-only channel.
	GetSendChannel() chan<- models.ChangeEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the connection. It must be safe to call more than once.
	Close()
}
