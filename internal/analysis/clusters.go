package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

// Cluster is a group of complaints a secretary may bulk-assign together.
type Cluster struct {
	ID           string          `json:"clusterId"`
	Key          string          `json:"key"`
	ComplaintIDs []models.FlexID `json:"complaintIds"`
	// Score grows with cluster size: min(0.95, 0.8 + 0.02·n).
	Score        float64 `json:"score"`
	CentroidText string  `json:"centroidText"`
}

// ClusterByCategoryBlock groups complaints by "category|block". Largest
// groups come first.
func ClusterByCategoryBlock(complaints []models.Complaint) []Cluster {
	return group(complaints, func(c models.Complaint) string {
		cat := c.Category
		if cat == "" {
			cat = config.DefaultCategory
		}
		block := c.Block
		if block == "" {
			block = "?"
		}
		return cat + "|" + block
	})
}

// ClusterByBlockDate groups complaints filed in the same block on the same
// day, keyed "block__YYYY-MM-DD".
func ClusterByBlockDate(complaints []models.Complaint) []Cluster {
	return group(complaints, func(c models.Complaint) string {
		block := c.Block
		if block == "" {
			block = "X"
		}
		day := ""
		if c.CreatedAt != nil {
			day = c.CreatedAt.UTC().Format("2006-01-02")
		}
		return block + "__" + day
	})
}

func group(complaints []models.Complaint, keyOf func(models.Complaint) string) []Cluster {
	members := map[string][]models.Complaint{}
	var keys []string
	for _, c := range complaints {
		k := keyOf(c)
		if _, ok := members[k]; !ok {
			keys = append(keys, k)
		}
		members[k] = append(members[k], c)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return len(members[keys[i]]) > len(members[keys[j]])
	})

	out := make([]Cluster, 0, len(keys))
	for i, k := range keys {
		items := members[k]
		ids := make([]models.FlexID, 0, len(items))
		titles := make([]string, 0, len(items))
		for _, c := range items {
			ids = append(ids, c.ID)
			titles = append(titles, c.Title)
		}
		out = append(out, Cluster{
			ID:           fmt.Sprintf("c%d", i+1),
			Key:          k,
			ComplaintIDs: ids,
			Score:        clusterScore(len(items)),
			CentroidText: strings.Join(titles, "; "),
		})
	}
	return out
}

func clusterScore(n int) float64 {
	s := math.Min(config.ClusterMaxScore, config.ClusterBaseScore+config.ClusterStep*float64(n))
	return math.Round(s*100) / 100
}
