package models

import (
	"time"

	"gorm.io/datatypes"
)

// CollectionRecord is one named collection saved as a single JSON document
// in the relational store.
type CollectionRecord struct {
	// Name is the collection key, e.g. "complaints".
	Name string `gorm:"primaryKey;size:64"`
	// Content is the serialised list (or single object for "auth").
	Content datatypes.JSON `gorm:"not null"`
	// UpdatedAt changes on every write, including verbatim rewrites.
	UpdatedAt time.Time
}

func (CollectionRecord) TableName() string {
	return "collections"
}
