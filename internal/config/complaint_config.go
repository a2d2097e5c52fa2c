package config

import "time"

// Complaint categories accepted on submission.
var Categories = []string{
	"Plumbing",
	"Electrical",
	"Carpentry",
	"Painting",
	"Cleaning",
	"Security",
	"Other",
}

// Urgency levels.
var Urgencies = []string{"Low", "Medium", "High"}

const (
	DefaultUrgency  = "Medium"
	DefaultCategory = "Other"

	// Bulk orders
	DefaultSLAHours = 48

	// Attachments
	MaxAttachments       = 5
	MaxAttachmentBytes   = 5 << 20
	AttachmentTypePrefix = "image/"

	// Rating
	MinRating = 1
	MaxRating = 5

	// Recommendation weights
	CategoryMatchBonus  = 40.0
	AvailabilityBonus   = 30.0
	RatingWeight        = 5.0
	CostPenaltyDivisor  = 100.0
	ResponsePenaltyMins = 60.0
	FallbackRating      = 3.0

	// Clustering
	ClusterBaseScore = 0.8
	ClusterStep      = 0.02
	ClusterMaxScore  = 0.95

	// Analytics
	DefaultAnalyticsWindow = 30 * 24 * time.Hour

	// Outbound calls
	UpstreamTimeout   = 4 * time.Second
	PredictionTimeout = 3 * time.Second
)

// SLAHours maps urgency to the resolution window used by the SLA KPI.
var SLAHours = map[string]float64{
	"High":   24,
	"Medium": 72,
	"Low":    168,
}
