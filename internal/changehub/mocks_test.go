package changehub_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"servicepulse/backend/internal/models"
)

type MockClient struct {
	id       string
	identity models.Identity
	send     chan models.ChangeEvent

	mu     sync.Mutex
	closed int
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:       id,
		identity: models.Identity{ID: id, Role: models.RoleSecretary},
		send:     make(chan models.ChangeEvent, buffer),
	}
}

func (c *MockClient) GetClientID() string                       { return c.id }
func (c *MockClient) GetIdentity() models.Identity              { return c.identity }
func (c *MockClient) GetSendChannel() chan<- models.ChangeEvent { return c.send }
func (c *MockClient) Run()                                      {}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *MockClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// MockBroadcaster records outgoing events and replays Incoming on Subscribe.
type MockBroadcaster struct {
	mock.Mock
	Incoming []models.ChangeEvent
}

func (m *MockBroadcaster) Broadcast(ctx context.Context, ev models.ChangeEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockBroadcaster) Subscribe(ctx context.Context, handler func(models.ChangeEvent)) error {
	for _, ev := range m.Incoming {
		handler(ev)
	}
	return nil
}
