package changehub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

// Handler is invoked for every delivered topic. Handlers should re-read the
// store rather than rely on the event itself.
type Handler func(ctx context.Context, topic string)

// Hub fans change topics out to in-process subscribers, connected views and,
// through a Broadcaster, to other processes sharing the same store.
type Hub struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64

	clientsMu sync.RWMutex
	Clients   map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client

	store       storage.Store
	broadcaster Broadcaster
	instanceID  string
	log         *slog.Logger
}

// NewHub creates a hub. store may be nil (no storage-level rewrite signal)
// and so may broadcaster (in-process delivery only).
func NewHub(store storage.Store, broadcaster Broadcaster) *Hub {
	return &Hub{
		handlers:     make(map[uint64]Handler),
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		store:        store,
		broadcaster:  broadcaster,
		instanceID:   uuid.NewString(),
		log:          logger.WithComponent("changehub"),
	}
}

// InstanceID identifies this process on the broadcast channel.
func (h *Hub) InstanceID() string {
	return h.instanceID
}

// Subscribe registers handler until the returned function is called. The
// returned function may be called any number of times.
func (h *Hub) Subscribe(handler Handler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers topic to every local subscriber and view before it
// returns, then broadcasts it and rewrites the topic's collections. Failures
// of the last two steps are logged; local delivery always happens.
func (h *Hub) Publish(ctx context.Context, topic string) {
	ev := models.ChangeEvent{Type: topic, Origin: h.instanceID, At: time.Now().UTC()}
	h.deliver(ctx, ev)

	if h.broadcaster != nil {
		if err := h.broadcaster.Broadcast(ctx, ev); err != nil {
			h.log.Warn("cross-process broadcast failed", "topic", topic, "error", err)
		}
	}

	if h.store != nil {
		if err := storage.Touch(ctx, h.store, storage.CollectionsFor(topic)...); err != nil {
			h.log.Warn("storage change signal failed", "topic", topic, "error", err)
		}
	}
}

// deliver runs handlers synchronously and pushes the event to views.
func (h *Hub) deliver(ctx context.Context, ev models.ChangeEvent) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		h.safeCall(ctx, fn, ev.Type)
	}

	h.pushToClients(ev)
}

func (h *Hub) safeCall(ctx context.Context, fn Handler, topic string) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("change handler panicked", "topic", topic, "panic", r)
		}
	}()
	fn(ctx, topic)
}

// pushToClients never blocks; a view whose buffer is full is dropped and
// reconnects on its own.
func (h *Hub) pushToClients(ev models.ChangeEvent) {
	var slow []Client

	h.clientsMu.RLock()
	for _, client := range h.Clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, client)
		}
	}
	h.clientsMu.RUnlock()

	for _, client := range slow {
		h.log.Warn("dropping slow view", "client_id", client.GetClientID())
		h.removeClient(client)
	}
}

func (h *Hub) addClient(client Client) {
	h.clientsMu.Lock()
	h.Clients[client.GetClientID()] = client
	h.clientsMu.Unlock()
	h.log.Debug("view registered", "client_id", client.GetClientID(), "role", client.GetIdentity().Role)
}

func (h *Hub) removeClient(client Client) {
	h.clientsMu.Lock()
	current, ok := h.Clients[client.GetClientID()]
	if ok && current == client {
		delete(h.Clients, client.GetClientID())
	}
	h.clientsMu.Unlock()

	if ok && current == client {
		client.Close()
		h.log.Debug("view unregistered", "client_id", client.GetClientID())
	}
}

// ClientCount returns the number of connected views.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.Clients)
}

// Run processes view registration until ctx is cancelled, then closes every
// remaining view.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.RegisterCh:
			h.addClient(client)

		case client := <-h.UnregisterCh:
			h.removeClient(client)

		case <-ctx.Done():
			h.clientsMu.Lock()
			clients := make([]Client, 0, len(h.Clients))
			for id, c := range h.Clients {
				clients = append(clients, c)
				delete(h.Clients, id)
			}
			h.clientsMu.Unlock()

			for _, c := range clients {
				c.Close()
			}
			return
		}
	}
}
