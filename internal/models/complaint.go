package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Complaint statuses. Resolved and completed are synonyms.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusCompleted  = "completed"
	StatusAssigned   = "assigned"
)

// Origin tags set by the combined complaint view.
const (
	OriginComplaints = "complaints"
	OriginBulk       = "bulk"
)

// IsResolved reports whether status closes a complaint.
func IsResolved(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == StatusResolved || s == StatusCompleted
}

// Complaint is a resident-filed issue. The same record shape is used for the
// standalone collection and for the summaries embedded in a bulk order.
type Complaint struct {
	ID          FlexID `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	// Category is one of config.Categories.
	Category string `json:"category,omitempty"`
	Block    string `json:"block,omitempty"`
	// Apartment is a 3-digit number kept as a string.
	Apartment string `json:"apartment,omitempty"`
	Urgency   string `json:"urgency,omitempty"`
	Status    string `json:"status,omitempty"`

	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`

	ResidentEmail string       `json:"residentEmail,omitempty"`
	ResidentName  string       `json:"residentName,omitempty"`
	Images        []Attachment `json:"images,omitempty"`

	AssignedVendor *VendorRef `json:"assignedVendor,omitempty"`
	VendorID       string     `json:"vendorId,omitempty"`
	VendorName     string     `json:"vendorName,omitempty"`
	VendorContact  string     `json:"vendorContact,omitempty"`

	// BulkOrderID and BulkVendorID link a complaint to the order it was folded into.
	BulkOrderID  string `json:"bulkOrderId,omitempty"`
	BulkVendorID string `json:"bulkVendorId,omitempty"`

	PredictedByML bool        `json:"predictedByML,omitempty"`
	Predicted     *Prediction `json:"predicted,omitempty"`

	VendorRating int      `json:"vendorRating,omitempty"`
	Invoice      *Invoice `json:"invoice,omitempty"`

	// Origin is only set on records produced by the combined view.
	Origin string `json:"_from,omitempty"`

	// Extra holds keys this type does not model so they survive a rewrite.
	Extra map[string]json.RawMessage `json:"-"`
}

// Attachment is metadata for an uploaded image.
type Attachment struct {
	Name        string `json:"name,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

type Invoice struct {
	URL        string     `json:"url,omitempty"`
	Amount     float64    `json:"amount,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

// Prediction is the classifier's suggestion for a complaint.
type Prediction struct {
	Category   string   `json:"category,omitempty"`
	Urgency    string   `json:"urgency,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

var complaintKeys = newKeySet(
	"id", "title", "description", "category", "block",
	"apartment", "urgency", "status", "createdAt",
	"startedAt", "completedAt", "resolvedAt", "residentEmail",
	"residentName", "images", "assignedVendor", "vendorId",
	"vendorName", "vendorContact", "bulkOrderId", "bulkVendorId",
	"predictedByML", "predicted", "vendorRating", "invoice",
	"_from",
)

type complaintAlias Complaint

func (c *Complaint) UnmarshalJSON(data []byte) error {
	var a complaintAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, complaintKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*c = Complaint(a)
	return nil
}

func (c Complaint) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(complaintAlias(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, c.Extra, complaintKeys)
}

// Resolved reports whether the complaint is closed.
func (c *Complaint) Resolved() bool {
	return IsResolved(c.Status)
}

// Clone returns a copy that shares no slices or pointers with c.
func (c Complaint) Clone() Complaint {
	out := c
	if c.Images != nil {
		out.Images = append([]Attachment(nil), c.Images...)
	}
	if c.AssignedVendor != nil {
		out.AssignedVendor = RawVendorRef(c.AssignedVendor.raw)
	}
	if c.Predicted != nil {
		p := *c.Predicted
		p.Candidates = append([]string(nil), c.Predicted.Candidates...)
		out.Predicted = &p
	}
	if c.Invoice != nil {
		inv := *c.Invoice
		out.Invoice = &inv
	}
	out.Extra = cloneExtra(c.Extra)
	return out
}
