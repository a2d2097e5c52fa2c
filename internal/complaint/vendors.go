package complaint

import (
	"context"
	"fmt"
	"strings"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/textutil"
	"servicepulse/backend/internal/validation"
)

func (s *Service) ListVendors(ctx context.Context) []models.Vendor {
	return storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
}

type VendorInput struct {
	Name            string   `json:"name" validate:"required,max=120"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" validate:"max=32"`
	Category        string   `json:"category" validate:"omitempty,category"`
	Speciality      []string `json:"speciality" validate:"dive,category"`
	AvgCost         float64  `json:"avgCost" validate:"gte=0"`
	AvgResponseMins float64  `json:"avgResponseMins" validate:"gte=0"`
}

// AddVendor registers a vendor. The upstream backend assigns the id when it
// is reachable; otherwise the id is "v_" followed by the time in milliseconds.
// New vendors start available and unrated.
func (s *Service) AddVendor(ctx context.Context, in VendorInput) (models.Vendor, error) {
	in.Name = textutil.Clean(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return models.Vendor{}, err
	}

	v := models.Vendor{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           strings.TrimSpace(in.Phone),
		Speciality:      in.Speciality,
		AvgCost:         in.AvgCost,
		AvgResponseMins: in.AvgResponseMins,
		Available:       true,
	}
	if len(v.Speciality) == 0 {
		cat := in.Category
		if cat == "" {
			cat = config.DefaultCategory
		}
		v.Speciality = []string{cat}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	for _, existing := range vendors {
		if v.Email != "" && models.SameEmail(existing.Email, v.Email) {
			return models.Vendor{}, apperr.Conflict("vendor already registered", v.Email)
		}
	}

	if s.upstreamEnabled() {
		created, err := s.Upstream.CreateVendor(ctx, v)
		if err != nil {
			s.log.Warn("upstream vendor create failed, storing locally", "error", err)
		} else if created.VendorID != "" {
			v.VendorID = created.VendorID
		}
	}
	if v.VendorID == "" {
		v.VendorID = fmt.Sprintf("v_%d", s.clock().UnixMilli())
		for indexVendor(vendors, v.VendorID) >= 0 {
			v.VendorID += "_"
		}
	}

	vendors = append(vendors, v)
	if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Vendors, vendors); err != nil {
		return models.Vendor{}, apperr.Internal("failed to store vendor", err.Error())
	}

	s.log.Info("vendor registered", "vendor_id", v.VendorID)
	return v, nil
}

// SetAvailability toggles whether a vendor takes new work.
func (s *Service) SetAvailability(ctx context.Context, vendorID string, available bool) (models.Vendor, error) {
	return s.mutateVendor(ctx, func(v *models.Vendor) bool { return v.VendorID == vendorID }, vendorID,
		func(v *models.Vendor) { v.Available = available })
}

// SetAvailabilityByChatID is SetAvailability for a vendor identified by its
// linked Telegram chat.
func (s *Service) SetAvailabilityByChatID(ctx context.Context, chatID int64, available bool) (models.Vendor, error) {
	return s.mutateVendor(ctx, func(v *models.Vendor) bool { return chatID != 0 && v.TelegramChatID == chatID },
		fmt.Sprint(chatID), func(v *models.Vendor) { v.Available = available })
}

// LinkTelegramChat binds a Telegram chat to the vendor with the given e-mail.
func (s *Service) LinkTelegramChat(ctx context.Context, email string, chatID int64) (models.Vendor, error) {
	return s.mutateVendor(ctx, func(v *models.Vendor) bool { return models.SameEmail(v.Email, email) }, email,
		func(v *models.Vendor) { v.TelegramChatID = chatID })
}

func (s *Service) mutateVendor(ctx context.Context, match func(*models.Vendor) bool, key string, fn func(*models.Vendor)) (models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	for i := range vendors {
		if !match(&vendors[i]) {
			continue
		}
		fn(&vendors[i])
		if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Vendors, vendors); err != nil {
			return models.Vendor{}, apperr.Internal("failed to update vendor", err.Error())
		}
		return vendors[i], nil
	}
	return models.Vendor{}, apperr.NotFound("vendor not found", key)
}

// RateVendor records a resident's 1-5 score for the vendor that resolved a
// complaint. The score is stored on the complaint and folded into the
// vendor's running mean; rating the same complaint again replaces the earlier
// score.
func (s *Service) RateVendor(ctx context.Context, resident models.Identity, id models.FlexID, score int) (float64, error) {
	if score < config.MinRating || score > config.MaxRating {
		return 0, apperr.Validation("rating must be between 1 and 5", fmt.Sprint(score))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.Resolver.Find(ctx, id)
	if !ok {
		return 0, apperr.NotFound("complaint not found", id.String())
	}
	if resident.Role == models.RoleResident && !models.SameEmail(c.ResidentEmail, resident.Email) {
		return 0, apperr.Forbidden("only the complaint's resident can rate it", id.String())
	}
	if !c.Resolved() {
		return 0, apperr.Validation("only resolved complaints can be rated", id.String())
	}

	vendors := storage.ReadList[models.Vendor](ctx, s.Store, storage.Vendors)
	idx := -1
	for _, key := range vendorKeys(c) {
		if idx = indexVendor(vendors, key); idx >= 0 {
			break
		}
	}
	if idx < 0 {
		return 0, apperr.NotFound("complaint has no known vendor", id.String())
	}

	prev := c.VendorRating
	if err := s.update(ctx, id, nil, func(c *models.Complaint) { c.VendorRating = score }); err != nil {
		return 0, err
	}

	rating := vendors[idx].ReplaceRating(prev, score)
	if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Vendors, vendors); err != nil {
		return 0, apperr.Internal("failed to update vendor rating", err.Error())
	}

	s.log.Info("vendor rated", "vendor_id", vendors[idx].VendorID, "score", score, "rating", rating)
	return rating, nil
}

// vendorKeys lists the ways a complaint names its vendor, most specific first.
func vendorKeys(c models.Complaint) []string {
	var keys []string
	for _, cand := range c.AssignedVendor.Candidates() {
		keys = append(keys, cand.ID, cand.Email, cand.Name)
	}
	keys = append(keys, c.VendorID, c.BulkVendorID, c.VendorName)

	out := keys[:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// RegisterVendor creates the vendor record for a vendor account signup.
func (s *Service) RegisterVendor(ctx context.Context, name, email, category string) (string, error) {
	v, err := s.AddVendor(ctx, VendorInput{Name: name, Email: email, Category: category})
	if err != nil {
		return "", err
	}
	return v.VendorID, nil
}
