package complaint

import (
	"context"
	"fmt"
	"strings"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/validation"
)

// AssignVendor hands a single complaint to a vendor and moves it to in-progress.
func (s *Service) AssignVendor(ctx context.Context, id models.FlexID, vendorID string) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendor, err := s.vendorByKey(ctx, vendorID)
	if err != nil {
		return models.Complaint{}, err
	}

	patch := map[string]any{"status": models.StatusInProgress, "vendorId": vendor.VendorID}
	err = s.update(ctx, id, patch, func(c *models.Complaint) {
		c.Status = models.StatusInProgress
		c.AssignedVendor = models.NewVendorRef(vendor.VendorID, vendor.Name, vendor.Email)
		c.VendorID = vendor.VendorID
		c.VendorName = vendor.Name
		c.VendorContact = vendor.Email
	})
	if err != nil {
		return models.Complaint{}, err
	}

	c, _ := s.Resolver.Find(ctx, id)
	s.announce(ctx, vendor, []models.Complaint{c})
	s.log.Info("vendor assigned", "complaint_id", id, "vendor_id", vendor.VendorID)
	return c, nil
}

type BulkOrderInput struct {
	ComplaintIDs []models.FlexID `json:"complaintIds" validate:"required,min=1"`
	VendorID     string          `json:"vendorId" validate:"required"`
	SLAHours     int             `json:"slaHours" validate:"gte=0"`
}

// CreateBulkOrder folds the selected complaints into one order for a vendor.
// The order stores summaries of the complaints; their standalone copies move
// to in-progress and record the order. A complaint may belong to one order
// only.
func (s *Service) CreateBulkOrder(ctx context.Context, in BulkOrderInput) (models.BulkOrder, error) {
	if err := validation.Struct(in); err != nil {
		return models.BulkOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vendor, err := s.vendorByKey(ctx, in.VendorID)
	if err != nil {
		return models.BulkOrder{}, err
	}

	complaints := storage.ReadList[models.Complaint](ctx, s.Store, storage.Complaints)
	orders := storage.ReadList[models.BulkOrder](ctx, s.Store, storage.BulkOrders)
	combined := s.Resolver.LoadCombinedComplaints(ctx)

	byID := make(map[models.FlexID]models.Complaint, len(combined))
	for _, c := range combined {
		byID[c.ID] = c
	}

	now := s.clock()
	order := models.BulkOrder{
		ID:         nextOrderID(orders, now.UnixMilli()),
		VendorID:   vendor.VendorID,
		VendorName: vendor.Name,
		SLAHours:   in.SLAHours,
		Status:     models.StatusAssigned,
		CreatedAt:  timePtr(now),
	}
	if order.SLAHours == 0 {
		order.SLAHours = config.DefaultSLAHours
	}

	selected := make(map[models.FlexID]bool, len(in.ComplaintIDs))
	var jobs []models.Complaint
	for _, id := range in.ComplaintIDs {
		if selected[id] {
			continue
		}
		c, ok := byID[id]
		if !ok {
			return models.BulkOrder{}, apperr.NotFound("complaint not found", id.String())
		}
		for _, o := range orders {
			if o.IndexOf(id) >= 0 {
				return models.BulkOrder{}, apperr.Conflict("complaint already belongs to a bulk order",
					fmt.Sprintf("%s is in %s", id, o.ID))
			}
		}
		selected[id] = true
		order.Complaints = append(order.Complaints, models.Complaint{
			ID:        c.ID,
			Title:     c.Title,
			Apartment: c.Apartment,
			Status:    models.StatusInProgress,
		})
		jobs = append(jobs, c)
	}

	// Найновіші замовлення йдуть першими.
	previous := orders
	orders = append([]models.BulkOrder{order}, orders...)
	if err := storage.WriteList(ctx, s.Store, nil, storage.BulkOrders, orders); err != nil {
		return models.BulkOrder{}, apperr.Internal("failed to store bulk order", err.Error())
	}

	for i := range complaints {
		c := &complaints[i]
		if !selected[c.ID] {
			continue
		}
		c.Status = models.StatusInProgress
		c.AssignedVendor = models.NewVendorRef(vendor.VendorID, vendor.Name, vendor.Email)
		c.VendorID = vendor.VendorID
		c.VendorName = vendor.Name
		c.BulkOrderID = order.ID
		c.BulkVendorID = vendor.VendorID
	}
	if err := storage.WriteList(ctx, s.Store, nil, storage.Complaints, complaints); err != nil {
		if rerr := storage.WriteList(ctx, s.Store, nil, storage.BulkOrders, previous); rerr != nil {
			s.log.Error("failed to withdraw bulk order", "order_id", order.ID, "error", rerr)
		}
		return models.BulkOrder{}, apperr.Internal("failed to update complaints", err.Error())
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, storage.TopicComplaints)
	}

	s.announce(ctx, vendor, jobs)
	s.log.Info("bulk order created",
		"order_id", order.ID,
		"vendor_id", vendor.VendorID,
		"complaints", len(order.Complaints),
	)
	return order, nil
}

func (s *Service) ListBulkOrders(ctx context.Context) []models.BulkOrder {
	return storage.ReadList[models.BulkOrder](ctx, s.Store, storage.BulkOrders)
}

// MarkResolved closes a complaint on the secretary's behalf and resolves any
// order it completes.
func (s *Service) MarkResolved(ctx context.Context, id models.FlexID) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	patch := map[string]any{"status": models.StatusResolved, "resolvedAt": now}
	err := s.update(ctx, id, patch, func(c *models.Complaint) {
		c.Status = models.StatusResolved
		c.ResolvedAt = timePtr(now)
	})
	if err != nil {
		return models.Complaint{}, err
	}
	if _, err := s.Resolver.RollupBulkOrders(ctx, id); err != nil {
		return models.Complaint{}, apperr.Internal("failed to roll up bulk orders", err.Error())
	}

	c, _ := s.Resolver.Find(ctx, id)
	return c, nil
}

// nextOrderID returns "bo_<ms>", bumping the timestamp past any order
// created in the same millisecond.
func nextOrderID(orders []models.BulkOrder, ms int64) string {
	taken := make(map[string]bool, len(orders))
	for _, o := range orders {
		taken[o.ID] = true
	}
	for {
		id := fmt.Sprintf("bo_%d", ms)
		if !taken[id] {
			return id
		}
		ms++
	}
}

func (s *Service) announce(ctx context.Context, vendor models.Vendor, jobs []models.Complaint) {
	if s.Announcer == nil || len(jobs) == 0 {
		return
	}
	if err := s.Announcer.AnnounceAssignment(ctx, vendor, jobs); err != nil {
		s.log.Warn("failed to announce assignment", "vendor_id", vendor.VendorID, "error", err)
	}
}

// vendorByKey finds a vendor by id, or by e-mail or name ignoring case.
// Caller holds s.mu.
func (s *Service) vendorByKey(ctx context.Context, key string) (models.Vendor, error) {
	key = strings.TrimSpace(key)
	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	if i := indexVendor(vendors, key); i >= 0 {
		return vendors[i], nil
	}
	return models.Vendor{}, apperr.NotFound("vendor not found", key)
}

func indexVendor(vendors []models.Vendor, key string) int {
	if key == "" {
		return -1
	}
	for i, v := range vendors {
		if v.VendorID == key {
			return i
		}
	}
	for i, v := range vendors {
		if strings.EqualFold(v.Email, key) || strings.EqualFold(v.Name, key) {
			return i
		}
	}
	return -1
}
