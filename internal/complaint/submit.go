package complaint

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/textutil"
	"servicepulse/backend/internal/validation"
)

type SubmitInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"required,max=5000"`
	Category    string              `json:"category" validate:"omitempty,category"`
	Block       string              `json:"block" validate:"required,max=16"`
	Apartment   string              `json:"apartment" validate:"apartment"`
	Urgency     string              `json:"urgency" validate:"omitempty,urgency"`
	Images      []models.Attachment `json:"images"`
}

// Submit files a new complaint for the resident. Category and urgency left
// empty are filled from the classifier when one is configured, then from the
// defaults. The upstream backend is tried first; on any failure the record
// is created locally.
func (s *Service) Submit(ctx context.Context, resident models.Identity, in SubmitInput) (models.Complaint, error) {
	in.Title = textutil.Clean(in.Title)
	in.Description = textutil.Clean(in.Description)
	in.Block = strings.ToUpper(textutil.Clean(in.Block))
	in.Apartment = strings.TrimSpace(in.Apartment)

	if err := validation.Struct(in); err != nil {
		return models.Complaint{}, err
	}
	if err := ValidateAttachments(in.Images); err != nil {
		return models.Complaint{}, err
	}

	now := s.clock()
	c := models.Complaint{
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Block:         in.Block,
		Apartment:     in.Apartment,
		Urgency:       in.Urgency,
		Status:        models.StatusOpen,
		CreatedAt:     timePtr(now),
		ResidentEmail: resident.Email,
		ResidentName:  resident.Name,
		Images:        in.Images,
	}

	if (c.Category == "" || c.Urgency == "") && s.Predictor != nil {
		if p := s.Predictor.Predict(ctx, c.Title, c.Description); p != nil {
			c.Predicted = p
			if c.Category == "" && p.Category != "" {
				c.Category = p.Category
				c.PredictedByML = true
			}
			if c.Urgency == "" && p.Urgency != "" {
				c.Urgency = p.Urgency
				c.PredictedByML = true
			}
		}
	}
	if c.Category == "" {
		c.Category = config.DefaultCategory
	}
	if c.Urgency == "" {
		c.Urgency = config.DefaultUrgency
	}

	if s.upstreamEnabled() {
		created, err := s.Upstream.CreateComplaint(ctx, c)
		if err != nil {
			s.log.Warn("upstream create failed, storing locally", "error", err)
		} else if created.ID != "" {
			c.ID = created.ID
			adoptRemote(&c, &created)
			if created.CreatedAt != nil {
				c.CreatedAt = created.CreatedAt
			}
		}
	}
	if c.ID == "" {
		c.ID = models.FlexID(uuid.NewString())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := storage.ReadList[models.Complaint](ctx, s.Store, storage.Complaints)
	list = upsert(list, c)
	if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Complaints, list); err != nil {
		return models.Complaint{}, apperr.Internal("failed to store complaint", err.Error())
	}

	s.log.Info("complaint submitted",
		"complaint_id", c.ID,
		"category", c.Category,
		"urgency", c.Urgency,
		"predicted", c.PredictedByML,
	)
	return c, nil
}

// SyncFromUpstream merges the upstream complaint list into the local
// collection. Records are matched by id; the server copy replaces the local
// one. It returns the number of records received.
func (s *Service) SyncFromUpstream(ctx context.Context) (int, error) {
	if !s.upstreamEnabled() {
		return 0, nil
	}
	remote, err := s.Upstream.ListComplaints(ctx)
	if err != nil {
		s.log.Warn("upstream list failed, keeping local data", "error", err)
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := storage.ReadList[models.Complaint](ctx, s.Store, storage.Complaints)
	for _, c := range remote {
		if c.ID == "" {
			continue
		}
		list = upsert(list, c)
	}
	if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Complaints, list); err != nil {
		return 0, apperr.Internal("failed to store complaints", err.Error())
	}
	return len(remote), nil
}

func upsert(list []models.Complaint, c models.Complaint) []models.Complaint {
	for i := range list {
		if list[i].ID == c.ID {
			list[i] = c
			return list
		}
	}
	return append(list, c)
}

// ValidateAttachments checks image metadata: at most config.MaxAttachments
// entries, each an image no larger than config.MaxAttachmentBytes.
func ValidateAttachments(images []models.Attachment) error {
	if len(images) > config.MaxAttachments {
		return apperr.Validation("too many attachments", fmt.Sprintf("at most %d images", config.MaxAttachments))
	}
	for _, img := range images {
		if !strings.HasPrefix(strings.ToLower(img.ContentType), config.AttachmentTypePrefix) {
			return apperr.Validation("attachment must be an image", img.Name)
		}
		if img.Size < 0 || img.Size > config.MaxAttachmentBytes {
			return apperr.Validation("attachment is too large", img.Name)
		}
	}
	return nil
}
