package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"servicepulse/backend/internal/logger"
)

// ReadList returns the ordered records of c. A missing collection, a backend
// error or content that is not a JSON list all yield an empty list; the
// failure is logged and never returned.
func ReadList[T any](ctx context.Context, s Store, c Collection) []T {
	raw, ok, err := s.Load(ctx, c)
	if err != nil {
		logger.WithComponent("storage").Warn("failed to load collection", "collection", c, "error", err)
		return []T{}
	}
	if !ok || len(raw) == 0 {
		return []T{}
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		logger.WithComponent("storage").Warn("collection content is not a valid list, treating as empty",
			"collection", c, "error", err)
		return []T{}
	}
	if list == nil {
		return []T{}
	}
	return list
}

// WriteList replaces c with list and then publishes the collection's topic.
// A nil publisher skips the notification.
func WriteList[T any](ctx context.Context, s Store, p Publisher, c Collection, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := s.Save(ctx, c, raw); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	if p != nil {
		p.Publish(ctx, TopicFor(c))
	}
	return nil
}

// ReadSingle reads a collection that holds one object rather than a list.
func ReadSingle[T any](ctx context.Context, s Store, c Collection) (T, bool) {
	var v T
	raw, ok, err := s.Load(ctx, c)
	if err != nil {
		logger.WithComponent("storage").Warn("failed to load collection", "collection", c, "error", err)
		return v, false
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.WithComponent("storage").Warn("collection content is not a valid object, treating as empty",
			"collection", c, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// WriteSingle stores v as the sole content of c and publishes its topic.
func WriteSingle[T any](ctx context.Context, s Store, p Publisher, c Collection, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := s.Save(ctx, c, raw); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	if p != nil {
		p.Publish(ctx, TopicFor(c))
	}
	return nil
}

// Touch rewrites each collection with its current bytes so that watchers of
// the backend see a change signal. Absent collections are left absent.
func Touch(ctx context.Context, s Store, collections ...Collection) error {
	for _, c := range collections {
		raw, ok, err := s.Load(ctx, c)
		if err != nil {
			return fmt.Errorf("load %s: %w", c, err)
		}
		if !ok {
			continue
		}
		if err := s.Save(ctx, c, raw); err != nil {
			return fmt.Errorf("save %s: %w", c, err)
		}
	}
	return nil
}
