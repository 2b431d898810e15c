package ledger

import (
	"strings"

	"github.com/dualikorea/reception/internal/models"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// Stats tallies items by status in one pass.
func Stats(items []models.RequestItem) models.Stats {
	var st models.Stats
	for _, item := range items {
		switch item.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusCompleted:
			st.Completed++
		}
	}
	st.Total = st.Pending + st.InProgress + st.Completed
	return st
}

// Filter keeps items whose category matches (AllCategories or "" match any)
// and whose customer, product or issue contains search, ignoring case.
// Input order is preserved.
func Filter(items []models.RequestItem, category, search string) []models.RequestItem {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.RequestItem, 0, len(items))
	for _, item := range items {
		if category != "" && category != AllCategories && string(item.Category) != category {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesSearch(item models.RequestItem, lowered string) bool {
	return strings.Contains(strings.ToLower(item.Customer), lowered) ||
		strings.Contains(strings.ToLower(item.Product), lowered) ||
		strings.Contains(strings.ToLower(item.Issue), lowered)
}

// ChartSlice is one segment of the dashboard status chart.
type ChartSlice struct {
	Status models.Status
	Name   string
	Value  int
}

// StatusChart returns the pending, in-progress and completed segments in
// that order.
func StatusChart(st models.Stats) []ChartSlice {
	return []ChartSlice{
		{Status: models.StatusPending, Name: models.StatusPending.Label(), Value: st.Pending},
		{Status: models.StatusInProgress, Name: models.StatusInProgress.Label(), Value: st.InProgress},
		{Status: models.StatusCompleted, Name: models.StatusCompleted.Label(), Value: st.Completed},
	}
}
