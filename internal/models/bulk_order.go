package models

import (
	"encoding/json"
	"time"
)

// BulkOrder groups several complaints under one vendor. Complaints holds
// denormalised copies taken when the order was created.
type BulkOrder struct {
	// ID is "bo_" followed by the creation time in milliseconds.
	ID         string      `json:"id"`
	VendorID   string      `json:"vendorId,omitempty"`
	VendorName string      `json:"vendorName,omitempty"`
	Complaints []Complaint `json:"complaints"`
	// SLAHours is the promised turnaround for the whole order.
	SLAHours   int        `json:"slaHours,omitempty"`
	Status     string     `json:"status,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	// Extra keeps keys such as notes or priority written by other clients.
	Extra map[string]json.RawMessage `json:"-"`
}

var orderKeys = newKeySet(
	"id", "vendorId", "vendorName", "complaints", "slaHours",
	"status", "createdAt", "resolvedAt",
)

type orderAlias BulkOrder

func (o *BulkOrder) UnmarshalJSON(data []byte) error {
	var a orderAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, orderKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*o = BulkOrder(a)
	return nil
}

func (o BulkOrder) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(orderAlias(o))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, o.Extra, orderKeys)
}

// IndexOf returns the position of the embedded complaint with id, or -1.
func (o *BulkOrder) IndexOf(id FlexID) int {
	for i := range o.Complaints {
		if o.Complaints[i].ID == id {
			return i
		}
	}
	return -1
}

func (o *BulkOrder) Resolved() bool {
	return IsResolved(o.Status)
}
