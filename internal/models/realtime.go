package models

import "time"

// ChangeEvent tells a view that a topic changed and it should re-read.
type ChangeEvent struct {
	Type string `json:"type"` // "complaints_updated", "vendors_updated", ...
	// Origin is the instance id of the publishing process.
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}
