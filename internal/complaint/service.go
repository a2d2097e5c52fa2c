// Package complaint holds the complaint workflow: resident submission,
// secretary triage and bulk assignment, vendor job handling and ratings.
package complaint

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/notify"
	"servicepulse/backend/internal/prediction"
	"servicepulse/backend/internal/resolver"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/upstream"
)

// Service serialises every read-modify-write it performs on the store.
// Writers in other processes are not coordinated; the last write of a
// collection wins.
type Service struct {
	Store     storage.Store
	Publisher storage.Publisher
	Resolver  *resolver.Resolver
	Predictor prediction.Predictor
	Upstream  upstream.Backend
	Announcer notify.Announcer

	mu  sync.Mutex
	now func() time.Time
	log *slog.Logger
}

type Option func(*Service)

func WithPredictor(p prediction.Predictor) Option { return func(s *Service) { s.Predictor = p } }

func WithUpstream(u upstream.Backend) Option { return func(s *Service) { s.Upstream = u } }

func WithAnnouncer(a notify.Announcer) Option { return func(s *Service) { s.Announcer = a } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store storage.Store, pub storage.Publisher, opts ...Option) *Service {
	s := &Service{
		Store:     store,
		Publisher: pub,
		Resolver:  resolver.New(store, pub),
		Announcer: notify.Nop{},
		now:       time.Now,
		log:       logger.WithComponent("complaint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Resolver.Now = s.now
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) upstreamEnabled() bool {
	return s.Upstream != nil && s.Upstream.Enabled()
}

// ListFilter narrows ListComplaints. Empty fields match everything.
type ListFilter struct {
	Category string
	Block    string
	Urgency  string
	Status   string
	// Query is matched case-insensitively against title, description and apartment.
	Query string
}

func (f ListFilter) match(c models.Complaint) bool {
	if f.Category != "" && !strings.EqualFold(c.Category, f.Category) {
		return false
	}
	if f.Block != "" && !strings.EqualFold(c.Block, f.Block) {
		return false
	}
	if f.Urgency != "" && !strings.EqualFold(c.Urgency, f.Urgency) {
		return false
	}
	if f.Status != "" {
		if models.IsResolved(f.Status) {
			if !c.Resolved() {
				return false
			}
		} else if !strings.EqualFold(c.Status, f.Status) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(c.Title + "\n" + c.Description + "\n" + c.Apartment)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// ListComplaints returns the combined view filtered by f.
func (s *Service) ListComplaints(ctx context.Context, f ListFilter) []models.Complaint {
	all := s.Resolver.LoadCombinedComplaints(ctx)
	out := make([]models.Complaint, 0, len(all))
	for _, c := range all {
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out
}

// ListForResident returns the complaints filed under the identity's e-mail.
func (s *Service) ListForResident(ctx context.Context, identity models.Identity) []models.Complaint {
	var out []models.Complaint
	for _, c := range s.Resolver.LoadCombinedComplaints(ctx) {
		if models.SameEmail(c.ResidentEmail, identity.Email) {
			out = append(out, c)
		}
	}
	if out == nil {
		out = []models.Complaint{}
	}
	return out
}

func (s *Service) Get(ctx context.Context, id models.FlexID) (models.Complaint, error) {
	c, ok := s.Resolver.Find(ctx, id)
	if !ok {
		return models.Complaint{}, apperr.NotFound("complaint not found", id.String())
	}
	return c, nil
}

// update applies fn through the resolver. When the upstream backend is
// configured the patch is sent there first and the server's status and
// timestamps are adopted. Caller holds s.mu.
func (s *Service) update(ctx context.Context, id models.FlexID, patch map[string]any, fn resolver.UpdateFunc) error {
	var remote *models.Complaint
	if s.upstreamEnabled() && patch != nil {
		r, err := s.Upstream.UpdateComplaint(ctx, id, patch)
		if err != nil {
			s.log.Warn("upstream update failed, applying locally", "complaint_id", id, "error", err)
		} else {
			remote = &r
		}
	}

	found, err := s.Resolver.FindAndUpdate(ctx, id, func(c *models.Complaint) {
		fn(c)
		if remote != nil {
			adoptRemote(c, remote)
		}
	})
	if err != nil {
		return apperr.Internal("failed to update complaint", err.Error())
	}
	if !found {
		return apperr.NotFound("complaint not found", id.String())
	}
	return nil
}

func adoptRemote(c, remote *models.Complaint) {
	if remote.Status != "" {
		c.Status = remote.Status
	}
	if remote.StartedAt != nil {
		c.StartedAt = remote.StartedAt
	}
	if remote.CompletedAt != nil {
		c.CompletedAt = remote.CompletedAt
	}
	if remote.ResolvedAt != nil {
		c.ResolvedAt = remote.ResolvedAt
	}
}

func timePtr(t time.Time) *time.Time { return &t }
