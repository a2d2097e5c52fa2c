// Package resolver locates a complaint wherever it is stored (the standalone
// collection or a bulk order's embedded list) and keeps both copies in step.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

// UpdateFunc mutates a complaint in place. Changes to the id are ignored.
type UpdateFunc func(c *models.Complaint)

// Resolver is not safe for concurrent read-modify-write; callers serialise.
type Resolver struct {
	Store     storage.Store
	Publisher storage.Publisher
	// Now stamps resolved orders; nil means time.Now.
	Now func() time.Time
	log *slog.Logger
}

func (r *Resolver) clock() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func New(store storage.Store, pub storage.Publisher) *Resolver {
	return &Resolver{
		Store:     store,
		Publisher: pub,
		log:       logger.WithComponent("resolver"),
	}
}

// FindAndUpdate applies fn to the complaint with id. The standalone copy wins;
// when it also lives in a bulk order, the embedded copy's status fields are
// synchronised. Without a standalone copy the first order containing id is
// updated. It returns false, nil when the id is nowhere to be found.
func (r *Resolver) FindAndUpdate(ctx context.Context, id models.FlexID, fn UpdateFunc) (bool, error) {
	complaints := storage.ReadList[models.Complaint](ctx, r.Store, storage.Complaints)
	orders := storage.ReadList[models.BulkOrder](ctx, r.Store, storage.BulkOrders)

	hits := ordersContaining(orders, id)
	if len(hits) > 1 {
		r.log.Warn("complaint is embedded in more than one bulk order, only the first is updated",
			"complaint_id", id,
			"order_id", orders[hits[0]].ID,
			"ignored_orders", orderIDs(orders, hits[1:]),
		)
	}

	if idx := indexOf(complaints, id); idx >= 0 {
		apply(&complaints[idx], id, fn)
		if err := storage.WriteList(ctx, r.Store, nil, storage.Complaints, complaints); err != nil {
			return false, err
		}

		if len(hits) > 0 {
			order := &orders[hits[0]]
			embedded := &order.Complaints[order.IndexOf(id)]
			if syncStatus(embedded, &complaints[idx]) {
				if err := storage.WriteList(ctx, r.Store, nil, storage.BulkOrders, orders); err != nil {
					return false, fmt.Errorf("sync embedded copy in %s: %w", order.ID, err)
				}
			}
		}

		r.publish(ctx)
		return true, nil
	}

	if len(hits) > 0 {
		order := &orders[hits[0]]
		apply(&order.Complaints[order.IndexOf(id)], id, fn)
		if err := storage.WriteList(ctx, r.Store, nil, storage.BulkOrders, orders); err != nil {
			return false, err
		}
		r.publish(ctx)
		return true, nil
	}

	r.log.Info("complaint not found in any collection", "complaint_id", id)
	return false, nil
}

func (r *Resolver) publish(ctx context.Context) {
	if r.Publisher != nil {
		r.Publisher.Publish(ctx, storage.TopicComplaints)
	}
}

// Find returns the merged view of a single complaint.
func (r *Resolver) Find(ctx context.Context, id models.FlexID) (models.Complaint, bool) {
	for _, c := range r.LoadCombinedComplaints(ctx) {
		if c.ID == id {
			return c, true
		}
	}
	return models.Complaint{}, false
}

// LoadCombinedComplaints returns one record per complaint id. Standalone
// records come first and are authoritative; embedded copies only fill empty
// descriptive fields and add bulk linkage. Complaints that exist only inside
// orders follow, in order iteration order.
func (r *Resolver) LoadCombinedComplaints(ctx context.Context) []models.Complaint {
	complaints := storage.ReadList[models.Complaint](ctx, r.Store, storage.Complaints)
	orders := storage.ReadList[models.BulkOrder](ctx, r.Store, storage.BulkOrders)
	return Combine(complaints, orders)
}

// Combine is the pure merge behind LoadCombinedComplaints.
func Combine(complaints []models.Complaint, orders []models.BulkOrder) []models.Complaint {
	out := make([]models.Complaint, 0, len(complaints))
	pos := make(map[models.FlexID]int, len(complaints))

	for _, c := range complaints {
		if c.ID == "" {
			continue
		}
		rec := c.Clone()
		rec.Origin = models.OriginComplaints
		if i, ok := pos[c.ID]; ok {
			out[i] = rec
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, rec)
	}

	for _, o := range orders {
		for _, ec := range o.Complaints {
			if ec.ID == "" {
				continue
			}
			i, ok := pos[ec.ID]
			if !ok {
				rec := ec.Clone()
				rec.BulkOrderID = o.ID
				rec.BulkVendorID = o.VendorID
				rec.Origin = models.OriginBulk
				pos[ec.ID] = len(out)
				out = append(out, rec)
				continue
			}

			existing := &out[i]
			fillEmpty(&existing.Title, ec.Title)
			fillEmpty(&existing.Description, ec.Description)
			fillEmpty(&existing.Apartment, ec.Apartment)
			fillEmpty(&existing.Block, ec.Block)
			fillEmpty(&existing.Category, ec.Category)
			fillEmpty(&existing.Urgency, ec.Urgency)
			fillEmpty(&existing.BulkOrderID, o.ID)
			fillEmpty(&existing.BulkVendorID, o.VendorID)
		}
	}

	return out
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func apply(c *models.Complaint, id models.FlexID, fn UpdateFunc) {
	fn(c)
	c.ID = id
}

// syncStatus copies the status-bearing fields of src onto the embedded copy.
func syncStatus(embedded, src *models.Complaint) bool {
	changed := embedded.Status != src.Status ||
		!sameTime(embedded.StartedAt, src.StartedAt) ||
		!sameTime(embedded.CompletedAt, src.CompletedAt) ||
		!sameTime(embedded.ResolvedAt, src.ResolvedAt)

	embedded.Status = src.Status
	embedded.StartedAt = src.StartedAt
	embedded.CompletedAt = src.CompletedAt
	embedded.ResolvedAt = src.ResolvedAt
	return changed
}

func indexOf(list []models.Complaint, id models.FlexID) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func ordersContaining(orders []models.BulkOrder, id models.FlexID) []int {
	var hits []int
	for i := range orders {
		if orders[i].IndexOf(id) >= 0 {
			hits = append(hits, i)
		}
	}
	return hits
}

func orderIDs(orders []models.BulkOrder, idx []int) []string {
	ids := make([]string, 0, len(idx))
	for _, i := range idx {
		ids = append(ids, orders[i].ID)
	}
	return ids
}
