package models

import (
	"encoding/json"
	"math"
	"strings"
)

// Vendor is a service provider that can be assigned complaints.
type Vendor struct {
	VendorID string `json:"vendorId"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	// Speciality lists the complaint categories the vendor handles.
	Speciality []string `json:"speciality,omitempty"`
	// Rating is nil for a vendor nobody has rated yet.
	Rating *float64 `json:"rating,omitempty"`
	// RatingCount is the number of ratings behind Rating. Legacy records
	// without it are treated as one rating.
	RatingCount     int     `json:"ratingCount,omitempty"`
	AvgCost         float64 `json:"avgCost,omitempty"`
	AvgResponseMins float64 `json:"avgResponseMins,omitempty"`
	Available       bool    `json:"available"`
	TelegramChatID  int64   `json:"telegramChatId,omitempty"`

	// Extra holds keys this type does not model, "id" included.
	Extra map[string]json.RawMessage `json:"-"`
}

var vendorKeys = newKeySet(
	"vendorId", "name", "email", "phone", "speciality", "rating",
	"ratingCount", "avgCost", "avgResponseMins", "available", "telegramChatId",
)

type vendorAlias Vendor

// UnmarshalJSON reads a vendor record. Older records carry only "id", which
// then stands in for vendorId.
func (v *Vendor) UnmarshalJSON(data []byte) error {
	var a vendorAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, vendorKeys)
	if err != nil {
		return err
	}
	if raw, ok := extra["id"]; ok && strings.TrimSpace(a.VendorID) == "" {
		var id FlexID
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
		a.VendorID = id.String()
	}
	a.Extra = extra
	*v = Vendor(a)
	return nil
}

func (v Vendor) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(vendorAlias(v))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, v.Extra, vendorKeys)
}

// Handles reports whether category is one of the vendor's specialities.
func (v *Vendor) Handles(category string) bool {
	for _, s := range v.Speciality {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// AddRating folds score into the running mean and returns the new rating,
// rounded to one decimal.
func (v *Vendor) AddRating(score int) float64 {
	return v.ReplaceRating(0, score)
}

// ReplaceRating swaps a previously counted score prev for score. A prev of
// zero means there was none and score is added as a new rating.
func (v *Vendor) ReplaceRating(prev, score int) float64 {
	count := v.RatingCount
	mean := 0.0
	if v.Rating != nil {
		mean = *v.Rating
		if count == 0 {
			count = 1
		}
	} else {
		count = 0
	}

	total := mean * float64(count)
	if prev > 0 && count > 0 {
		total -= float64(prev)
	} else {
		count++
	}
	mean = (total + float64(score)) / float64(count)
	mean = math.Round(mean*10) / 10

	v.Rating = &mean
	v.RatingCount = count
	return mean
}
