// Package analysis derives dashboard KPIs and complaint clusters from the
// combined complaint view.
package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

// Filter narrows the complaints a report covers. Zero From means
// To - config.DefaultAnalyticsWindow; zero To means now.
type Filter struct {
	Category string
	From     time.Time
	To       time.Time
}

type Report struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	// AvgResolutionHours is rounded to one decimal.
	AvgResolutionHours float64 `json:"avgResolutionHours"`
	// SLAPercent is the share of resolved complaints closed inside their
	// urgency's SLA window, rounded to a whole percent.
	SLAPercent int                 `json:"slaPct"`
	Categories []CategoryCount     `json:"categories"`
	PerDay     []DayCount          `json:"perDay"`
	Vendors    []VendorPerformance `json:"vendors"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type VendorPerformance struct {
	Vendor       string   `json:"vendor"`
	Total        int      `json:"total"`
	Completed    int      `json:"completed"`
	AvgTimeHours float64  `json:"avgTimeHours"`
	Rating       *float64 `json:"rating,omitempty"`
}

// SLAHours returns the SLA window for an urgency; unknown urgencies use Medium.
func SLAHours(urgency string) float64 {
	if h, ok := config.SLAHours[urgency]; ok {
		return h
	}
	return config.SLAHours[config.DefaultUrgency]
}

// Compute builds the report for complaints created inside the filter window.
// Vendor performance covers every complaint regardless of the window.
func Compute(complaints []models.Complaint, vendors []models.Vendor, f Filter, now time.Time) Report {
	end := f.To
	if end.IsZero() {
		end = now
	}
	start := f.From
	if start.IsZero() {
		start = end.Add(-config.DefaultAnalyticsWindow)
	}

	var filtered []models.Complaint
	for _, c := range complaints {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if c.CreatedAt == nil || c.CreatedAt.Before(start) || c.CreatedAt.After(end) {
			continue
		}
		filtered = append(filtered, c)
	}

	r := Report{Total: len(filtered)}
	var hoursSum float64
	slaOK := 0
	catCounts := map[string]int{}
	var catOrder []string

	for _, c := range filtered {
		// assigned counts as in progress, anything unknown as open
		switch {
		case c.Status == models.StatusInProgress, c.Status == models.StatusAssigned:
			r.InProgress++
		case models.IsResolved(c.Status):
			r.Resolved++
			h := resolutionHours(c, now)
			hoursSum += h
			if h <= SLAHours(c.Urgency) {
				slaOK++
			}
		default:
			r.Open++
		}

		cat := c.Category
		if cat == "" {
			cat = config.DefaultCategory
		}
		if _, seen := catCounts[cat]; !seen {
			catOrder = append(catOrder, cat)
		}
		catCounts[cat]++
	}

	if r.Resolved > 0 {
		r.AvgResolutionHours = math.Round(hoursSum/float64(r.Resolved)*10) / 10
		r.SLAPercent = int(math.Round(float64(slaOK) / float64(r.Resolved) * 100))
	}

	r.Categories = make([]CategoryCount, 0, len(catOrder))
	for _, cat := range catOrder {
		r.Categories = append(r.Categories, CategoryCount{Name: cat, Value: catCounts[cat]})
	}

	r.PerDay = perDay(filtered, start, end)
	r.Vendors = vendorPerformance(complaints, vendors, now)
	return r
}

// resolutionHours measures createdAt to resolvedAt, falling back to
// completedAt and then now.
func resolutionHours(c models.Complaint, now time.Time) float64 {
	if c.CreatedAt == nil {
		return 0
	}
	end := now
	switch {
	case c.ResolvedAt != nil:
		end = *c.ResolvedAt
	case c.CompletedAt != nil:
		end = *c.CompletedAt
	}
	return end.Sub(*c.CreatedAt).Hours()
}

func perDay(list []models.Complaint, start, end time.Time) []DayCount {
	counts := map[string]int{}
	var days []string
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end.UTC()); d = d.Add(24 * time.Hour) {
		key := d.Format(time.DateOnly)
		counts[key] = 0
		days = append(days, key)
	}
	for _, c := range list {
		key := c.CreatedAt.UTC().Format(time.DateOnly)
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}

	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

func vendorPerformance(complaints []models.Complaint, vendors []models.Vendor, now time.Time) []VendorPerformance {
	index := map[string]*models.Vendor{}
	for i := range vendors {
		v := &vendors[i]
		for _, key := range []string{v.VendorID, v.Name, v.Email} {
			if key != "" {
				index[strings.ToLower(key)] = v
			}
		}
	}

	perf := map[string]*VendorPerformance{}
	var order []string
	for _, c := range complaints {
		key := vendorKey(c)
		p, ok := perf[key]
		if !ok {
			p = &VendorPerformance{Vendor: key}
			perf[key] = p
			order = append(order, key)
		}
		p.Total++
		if c.Resolved() {
			p.Completed++
			h := resolutionHours(c, now)
			p.AvgTimeHours = (p.AvgTimeHours*float64(p.Completed-1) + h) / float64(p.Completed)
		}
	}

	out := make([]VendorPerformance, 0, len(order))
	for _, key := range order {
		p := perf[key]
		p.AvgTimeHours = math.Round(p.AvgTimeHours*10) / 10
		if v, ok := index[strings.ToLower(key)]; ok {
			p.Rating = v.Rating
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func vendorKey(c models.Complaint) string {
	if !c.AssignedVendor.IsZero() {
		p := c.AssignedVendor.Primary()
		if p.ID != "" {
			return p.ID
		}
		if p.Name != "" {
			return p.Name
		}
	}
	if c.VendorID != "" {
		return c.VendorID
	}
	if c.BulkVendorID != "" {
		return c.BulkVendorID
	}
	return "unassigned"
}
