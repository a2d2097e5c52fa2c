// Package notify tells vendors about new work.
package notify

import (
	"context"
	"errors"

	"servicepulse/backend/internal/models"
)

// Announcer delivers a job notice to a vendor.
type Announcer interface {
	AnnounceAssignment(ctx context.Context, vendor models.Vendor, jobs []models.Complaint) error
}

// Multi fans a notice out to every announcer and joins their errors.
type Multi []Announcer

func (m Multi) AnnounceAssignment(ctx context.Context, vendor models.Vendor, jobs []models.Complaint) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.AnnounceAssignment(ctx, vendor, jobs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) AnnounceAssignment(context.Context, models.Vendor, []models.Complaint) error { return nil }
