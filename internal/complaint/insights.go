package complaint

import (
	"context"

	"servicepulse/backend/internal/analysis"
	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/recommend"
	"servicepulse/backend/internal/storage"
)

// Cluster modes.
const (
	ClusterByCategoryBlock = "category-block"
	ClusterByBlockDate     = "block-date"
)

// Clusters groups the unresolved complaints for bulk assignment.
func (s *Service) Clusters(ctx context.Context, mode string) []analysis.Cluster {
	var open []models.Complaint
	for _, c := range s.Resolver.LoadCombinedComplaints(ctx) {
		if !c.Resolved() {
			open = append(open, c)
		}
	}
	if mode == ClusterByBlockDate {
		return analysis.ClusterByBlockDate(open)
	}
	return analysis.ClusterByCategoryBlock(open)
}

// AutoLabel asks the classifier for each complaint's category and urgency
// and stores the answer. Complaints the classifier cannot label are skipped.
func (s *Service) AutoLabel(ctx context.Context, ids []models.FlexID) ([]models.Complaint, error) {
	if s.Predictor == nil {
		return []models.Complaint{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	labelled := []models.Complaint{}
	for _, id := range ids {
		c, ok := s.Resolver.Find(ctx, id)
		if !ok {
			return labelled, apperr.NotFound("complaint not found", id.String())
		}
		p := s.Predictor.Predict(ctx, c.Title, c.Description)
		if p == nil {
			continue
		}

		err := s.update(ctx, id, nil, func(c *models.Complaint) {
			if p.Category != "" {
				c.Category = p.Category
			}
			if p.Urgency != "" {
				c.Urgency = p.Urgency
			}
			c.PredictedByML = true
			c.Predicted = p
		})
		if err != nil {
			return labelled, err
		}
		if updated, ok := s.Resolver.Find(ctx, id); ok {
			labelled = append(labelled, updated)
		}
	}
	return labelled, nil
}

// Recommend ranks vendors for the given complaints and returns at most limit
// entries; limit <= 0 returns all of them.
func (s *Service) Recommend(ctx context.Context, ids []models.FlexID, limit int) ([]recommend.Scored, error) {
	var selected []models.Complaint
	if len(ids) > 0 {
		want := make(map[models.FlexID]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		for _, c := range s.Resolver.LoadCombinedComplaints(ctx) {
			if want[c.ID] {
				selected = append(selected, c)
			}
		}
		if len(selected) == 0 {
			return nil, apperr.NotFound("no matching complaints")
		}
	}

	var criteria recommend.Criteria
	if len(selected) > 0 {
		criteria = recommend.CriteriaFor(selected)
	}
	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	return recommend.Top(recommend.Rank(vendors, criteria), limit), nil
}

// Analytics computes the dashboard report over the combined view.
func (s *Service) Analytics(ctx context.Context, f analysis.Filter) analysis.Report {
	complaints := s.Resolver.LoadCombinedComplaints(ctx)
	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	return analysis.Compute(complaints, vendors, f, s.clock())
}
