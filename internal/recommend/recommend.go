// Package recommend ranks vendors for a set of complaints with a fixed
// weighted-sum heuristic.
package recommend

import (
	"math"
	"sort"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

// Reasons attached to a scored vendor.
const (
	ReasonCategory   = "Matches category"
	ReasonRating     = "High rating"
	ReasonFast       = "Fast responder"
	ReasonAvailable  = "Available"
	highRatingCutoff = 4.0
	fastResponseMins = 120.0
)

// Criteria describes what the vendor is being picked for.
type Criteria struct {
	// Categories of the selected complaints; a vendor matching any of them
	// gets the category bonus.
	Categories []string
}

// CriteriaFor collects the distinct categories of complaints.
func CriteriaFor(complaints []models.Complaint) Criteria {
	seen := make(map[string]bool)
	var cats []string
	for _, c := range complaints {
		cat := c.Category
		if cat == "" {
			cat = config.DefaultCategory
		}
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	return Criteria{Categories: cats}
}

type Scored struct {
	Vendor  models.Vendor `json:"vendor"`
	Score   float64       `json:"score"`
	Reasons []string      `json:"reasons"`
}

// Score computes
//
//	40·match + 30·available + 5·rating − avgCost/100 − avgResponseMins/60
//
// rounded to two decimals. An unrated vendor counts as rating 3.
func Score(v models.Vendor, c Criteria) (float64, []string) {
	reasons := make([]string, 0, 4)
	score := 0.0

	if matches(v, c) {
		score += config.CategoryMatchBonus
		reasons = append(reasons, ReasonCategory)
	}
	if v.Available {
		score += config.AvailabilityBonus
	}

	rating := config.FallbackRating
	if v.Rating != nil {
		rating = *v.Rating
	}
	score += config.RatingWeight * rating
	if rating >= highRatingCutoff {
		reasons = append(reasons, ReasonRating)
	}

	score -= v.AvgCost / config.CostPenaltyDivisor
	score -= v.AvgResponseMins / config.ResponsePenaltyMins
	if v.AvgResponseMins > 0 && v.AvgResponseMins <= fastResponseMins {
		reasons = append(reasons, ReasonFast)
	}
	if v.Available {
		reasons = append(reasons, ReasonAvailable)
	}

	return math.Round(score*100) / 100, reasons
}

// Rank scores every vendor and sorts by score, highest first. Equal scores
// keep their input order.
func Rank(vendors []models.Vendor, c Criteria) []Scored {
	out := make([]Scored, len(vendors))
	for i, v := range vendors {
		score, reasons := Score(v, c)
		out[i] = Scored{Vendor: v, Score: score, Reasons: reasons}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns at most n entries of a ranked list.
func Top(ranked []Scored, n int) []Scored {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

func matches(v models.Vendor, c Criteria) bool {
	for _, cat := range c.Categories {
		if v.Handles(cat) {
			return true
		}
	}
	return false
}
