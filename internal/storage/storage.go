// Package storage persists named collections of JSON records and exposes
// typed list access on top of any durable key-value backend.
package storage

import (
	"context"
	"errors"
)

// Collection names a durable collection.
type Collection string

const (
	Complaints Collection = "complaints"
	BulkOrders Collection = "bulk_orders"
	Vendors    Collection = "vendors"
	Users      Collection = "users"
	// Auth holds the single active identity used by the admin CLI.
	Auth Collection = "auth"
)

// Change topics.
const (
	TopicComplaints = "complaints_updated"
	TopicVendors    = "vendors_updated"
	TopicSession    = "session_updated"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store is closed")

// Store is the durable backend. Load reports ok=false when the collection has
// never been written.
type Store interface {
	Load(ctx context.Context, c Collection) (raw []byte, ok bool, err error)
	Save(ctx context.Context, c Collection, raw []byte) error
}

// Publisher receives a topic after every successful write.
type Publisher interface {
	Publish(ctx context.Context, topic string)
}

// TopicFor returns the change topic a write to c announces.
func TopicFor(c Collection) string {
	switch c {
	case Complaints, BulkOrders:
		return TopicComplaints
	case Vendors:
		return TopicVendors
	case Users, Auth:
		return TopicSession
	}
	return ""
}

// CollectionsFor is the inverse of TopicFor. Unknown topics map to nothing.
func CollectionsFor(topic string) []Collection {
	switch topic {
	case TopicComplaints:
		return []Collection{Complaints, BulkOrders}
	case TopicVendors:
		return []Collection{Vendors}
	case TopicSession:
		return []Collection{Users, Auth}
	}
	return nil
}
