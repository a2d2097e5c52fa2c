package changehub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"servicepulse/backend/internal/changehub"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

func TestHub_PublishDeliversSynchronouslyToEverySubscriber(t *testing.T) {
	hub := changehub.NewHub(nil, nil)

	var got []string
	hub.Subscribe(func(_ context.Context, topic string) { got = append(got, "a:"+topic) })
	hub.Subscribe(func(_ context.Context, topic string) { got = append(got, "b:"+topic) })

	hub.Publish(context.Background(), storage.TopicComplaints)

	assert.ElementsMatch(t, []string{"a:complaints_updated", "b:complaints_updated"}, got)
}

func TestHub_UnsubscribeIsIdempotentAndStopsDelivery(t *testing.T) {
	hub := changehub.NewHub(nil, nil)

	calls := 0
	unsubscribe := hub.Subscribe(func(context.Context, string) { calls++ })

	hub.Publish(context.Background(), storage.TopicVendors)
	unsubscribe()
	unsubscribe()
	hub.Publish(context.Background(), storage.TopicVendors)

	assert.Equal(t, 1, calls)
}

func TestHub_UnsubscribeOnlyRemovesItsOwnHandler(t *testing.T) {
	hub := changehub.NewHub(nil, nil)

	first, second := 0, 0
	unsubscribe := hub.Subscribe(func(context.Context, string) { first++ })
	hub.Subscribe(func(context.Context, string) { second++ })

	unsubscribe()
	hub.Publish(context.Background(), storage.TopicComplaints)

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestHub_PublishRewritesCollectionsWithoutChangingReads(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	s.Put(storage.Complaints, `[{"id":"c1","status":"open"},{"id":"c2","status":"resolved"}]`)
	s.Put(storage.BulkOrders, `[{"id":"bo_1","complaints":[{"id":"c3"}]}]`)
	hub := changehub.NewHub(s, nil)

	before := storage.ReadList[models.Complaint](ctx, s, storage.Complaints)
	beforeOrders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)

	for i := 0; i < 5; i++ {
		hub.Publish(ctx, storage.TopicComplaints)
	}

	assert.Equal(t, before, storage.ReadList[models.Complaint](ctx, s, storage.Complaints))
	assert.Equal(t, beforeOrders, storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders))
	assert.Equal(t, 5, s.Writes(storage.Complaints))
	assert.Equal(t, 5, s.Writes(storage.BulkOrders))
	assert.Equal(t, 0, s.Writes(storage.Vendors))
}

func TestHub_UnknownTopicFansOutButRewritesNothing(t *testing.T) {
	s := storage.NewMemoryStore()
	s.Put(storage.Complaints, `[]`)
	hub := changehub.NewHub(s, nil)

	var got string
	hub.Subscribe(func(_ context.Context, topic string) { got = topic })

	hub.Publish(context.Background(), "something_else")

	assert.Equal(t, "something_else", got)
	assert.Equal(t, 0, s.Writes(storage.Complaints))
}

func TestHub_BroadcastFailureDoesNotBlockLocalDelivery(t *testing.T) {
	b := new(MockBroadcaster)
	b.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev models.ChangeEvent) bool {
		return ev.Type == storage.TopicVendors
	})).Return(errors.New("redis down"))

	hub := changehub.NewHub(nil, b)
	delivered := false
	hub.Subscribe(func(context.Context, string) { delivered = true })

	hub.Publish(context.Background(), storage.TopicVendors)

	assert.True(t, delivered)
	b.AssertNumberOfCalls(t, "Broadcast", 1)
}

func TestHub_BroadcastCarriesInstanceID(t *testing.T) {
	b := new(MockBroadcaster)
	hub := changehub.NewHub(nil, b)
	b.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev models.ChangeEvent) bool {
		return ev.Origin == hub.InstanceID()
	})).Return(nil)

	hub.Publish(context.Background(), storage.TopicComplaints)

	b.AssertExpectations(t)
}

func TestHub_ListenIgnoresOwnEchoAndDeliversRemote(t *testing.T) {
	b := new(MockBroadcaster)
	hub := changehub.NewHub(nil, b)
	b.Incoming = []models.ChangeEvent{
		{Type: storage.TopicComplaints, Origin: hub.InstanceID()},
		{Type: storage.TopicVendors, Origin: "other-instance"},
	}

	var got []string
	hub.Subscribe(func(_ context.Context, topic string) { got = append(got, topic) })

	require.NoError(t, hub.Listen(context.Background()))

	assert.Equal(t, []string{storage.TopicVendors}, got)
	b.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestHub_ListenWithoutBroadcasterWaitsForCancel(t *testing.T) {
	hub := changehub.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, hub.Listen(ctx), context.Canceled)
}

func TestHub_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	hub := changehub.NewHub(nil, nil)

	delivered := false
	hub.Subscribe(func(context.Context, string) { panic("boom") })
	hub.Subscribe(func(context.Context, string) { delivered = true })

	assert.NotPanics(t, func() { hub.Publish(context.Background(), storage.TopicComplaints) })
	assert.True(t, delivered)
}

func TestHub_RunRegistersClientsAndPushesEvents(t *testing.T) {
	hub := changehub.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newMockClient("view_A", 4)
	hub.RegisterCh <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), storage.TopicComplaints)

	select {
	case ev := <-client.send:
		assert.Equal(t, storage.TopicComplaints, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("view did not receive the change event")
	}

	hub.UnregisterCh <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, client.Closed())
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := changehub.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newMockClient("view_slow", 0)
	hub.RegisterCh <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), storage.TopicComplaints)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 1, client.Closed())
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	hub := changehub.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newMockClient("view_B", 1)
	hub.RegisterCh <- client
	cancel()
	<-done

	assert.Equal(t, 1, client.Closed())
	assert.Equal(t, 0, hub.ClientCount())
}
