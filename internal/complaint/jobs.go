package complaint

import (
	"context"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/resolver"
	"servicepulse/backend/internal/validation"
)

type JobCounts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

type JobList struct {
	Jobs   []models.Complaint `json:"jobs"`
	Counts JobCounts          `json:"counts"`
}

// VendorJobs lists every complaint the vendor owns, bulk or single.
func (s *Service) VendorJobs(ctx context.Context, vendor models.Identity) JobList {
	out := JobList{Jobs: []models.Complaint{}}
	for _, c := range s.Resolver.LoadCombinedComplaints(ctx) {
		if !resolver.VendorOwns(c, vendor) {
			continue
		}
		out.Jobs = append(out.Jobs, c)
		out.Counts.Total++
		switch {
		case c.Resolved():
			out.Counts.Resolved++
		case c.Status == models.StatusInProgress:
			out.Counts.InProgress++
		default:
			out.Counts.Open++
		}
	}
	return out
}

// AcceptJob starts work on a complaint the vendor owns.
func (s *Service) AcceptJob(ctx context.Context, vendor models.Identity, id models.FlexID) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBy(ctx, vendor, id); err != nil {
		return models.Complaint{}, err
	}

	now := s.clock()
	patch := map[string]any{"status": models.StatusInProgress, "startedAt": now}
	err := s.update(ctx, id, patch, func(c *models.Complaint) {
		c.Status = models.StatusInProgress
		c.StartedAt = timePtr(now)
		if c.AssignedVendor.IsZero() {
			c.AssignedVendor = models.NewVendorRef(vendorID(vendor), vendor.Name, vendor.Email)
		}
	})
	if err != nil {
		return models.Complaint{}, err
	}

	c, _ := s.Resolver.Find(ctx, id)
	s.log.Info("job accepted", "complaint_id", id, "vendor_id", vendorID(vendor))
	return c, nil
}

// CompleteJob resolves a complaint the vendor owns and resolves any order
// it completes.
func (s *Service) CompleteJob(ctx context.Context, vendor models.Identity, id models.FlexID) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBy(ctx, vendor, id); err != nil {
		return models.Complaint{}, err
	}

	now := s.clock()
	patch := map[string]any{"status": models.StatusResolved, "completedAt": now, "resolvedAt": now}
	err := s.update(ctx, id, patch, func(c *models.Complaint) {
		c.Status = models.StatusResolved
		c.CompletedAt = timePtr(now)
		c.ResolvedAt = timePtr(now)
	})
	if err != nil {
		return models.Complaint{}, err
	}
	if _, err := s.Resolver.RollupBulkOrders(ctx, id); err != nil {
		return models.Complaint{}, apperr.Internal("failed to roll up bulk orders", err.Error())
	}

	c, _ := s.Resolver.Find(ctx, id)
	s.log.Info("job completed", "complaint_id", id, "vendor_id", vendorID(vendor))
	return c, nil
}

type InvoiceInput struct {
	URL    string  `json:"url" validate:"required,url"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// AttachInvoice records invoice metadata on a complaint the vendor owns.
func (s *Service) AttachInvoice(ctx context.Context, vendor models.Identity, id models.FlexID, in InvoiceInput) (models.Complaint, error) {
	if err := validation.Struct(in); err != nil {
		return models.Complaint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBy(ctx, vendor, id); err != nil {
		return models.Complaint{}, err
	}

	now := s.clock()
	err := s.update(ctx, id, nil, func(c *models.Complaint) {
		c.Invoice = &models.Invoice{URL: in.URL, Amount: in.Amount, UploadedAt: timePtr(now)}
	})
	if err != nil {
		return models.Complaint{}, err
	}

	c, _ := s.Resolver.Find(ctx, id)
	return c, nil
}

func (s *Service) ownedBy(ctx context.Context, vendor models.Identity, id models.FlexID) (models.Complaint, error) {
	c, ok := s.Resolver.Find(ctx, id)
	if !ok {
		return models.Complaint{}, apperr.NotFound("complaint not found", id.String())
	}
	if !resolver.VendorOwns(c, vendor) {
		return models.Complaint{}, apperr.Forbidden("complaint is not assigned to this vendor", id.String())
	}
	return c, nil
}

func vendorID(identity models.Identity) string {
	if identity.VendorID != "" {
		return identity.VendorID
	}
	return identity.ID
}
