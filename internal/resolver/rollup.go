package resolver

import (
	"context"
	"time"

	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

// RollupBulkOrders marks resolved every unresolved order that contains id and
// whose complaints are all resolved. A complaint is judged by its standalone
// status when it has one, else by the embedded status. It returns the number
// of orders that changed.
func (r *Resolver) RollupBulkOrders(ctx context.Context, id models.FlexID) (int, error) {
	complaints := storage.ReadList[models.Complaint](ctx, r.Store, storage.Complaints)
	orders := storage.ReadList[models.BulkOrder](ctx, r.Store, storage.BulkOrders)

	canonical := make(map[models.FlexID]string, len(complaints))
	for _, c := range complaints {
		canonical[c.ID] = c.Status
	}

	now := r.clock()
	changed := 0
	for i := range orders {
		o := &orders[i]
		if o.Resolved() || o.IndexOf(id) < 0 {
			continue
		}
		if !allResolved(o, canonical) {
			continue
		}
		o.Status = models.StatusResolved
		o.ResolvedAt = &now
		changed++
		r.log.Info("bulk order resolved", "order_id", o.ID, "complaints", len(o.Complaints))
	}

	if changed == 0 {
		return 0, nil
	}
	if err := storage.WriteList(ctx, r.Store, r.Publisher, storage.BulkOrders, orders); err != nil {
		return 0, err
	}
	return changed, nil
}

func allResolved(o *models.BulkOrder, canonical map[models.FlexID]string) bool {
	if len(o.Complaints) == 0 {
		return false
	}
	for _, ec := range o.Complaints {
		status := ec.Status
		if s, ok := canonical[ec.ID]; ok && s != "" {
			status = s
		}
		if !models.IsResolved(status) {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
