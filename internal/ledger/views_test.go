package ledger

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dualikorea/reception/internal/models"
)

func viewFixture() []models.RequestItem {
	return []models.RequestItem{
		{ID: "a", Category: models.CategoryRepair, Customer: "Acme", Product: "Widget", Issue: "cracked case", Status: models.StatusPending},
		{ID: "b", Category: models.CategoryDevelopment, Customer: "Globex", Product: "Firmware", Issue: "add night mode", Status: models.StatusInProgress},
		{ID: "c", Category: models.CategoryRepair, Customer: "Initech", Product: "Printer", Issue: "paper jam in WIDGET tray", Status: models.StatusCompleted},
		{ID: "d", Category: models.CategoryDevelopment, Customer: "acme labs", Product: "Sensor", Issue: "calibration", Status: models.StatusCompleted},
	}
}

func ids(items []models.RequestItem) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return strings.Join(out, ",")
}

func TestStats(t *testing.T) {
	tests := []struct {
		name  string
		items []models.RequestItem
		want  models.Stats
	}{
		{"empty", nil, models.Stats{}},
		{"fixture", viewFixture(), models.Stats{Total: 4, Pending: 1, InProgress: 1, Completed: 2}},
		{"seed", SampleSeed(), models.Stats{Total: 2, Pending: 1, InProgress: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stats(tt.items)
			if got != tt.want {
				t.Errorf("Stats = %+v, want %+v", got, tt.want)
			}
			if got.Total != got.Pending+got.InProgress+got.Completed {
				t.Errorf("total %d does not equal sum of statuses", got.Total)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	items := viewFixture()

	tests := []struct {
		name     string
		category string
		search   string
		want     string
	}{
		{"all, no search", AllCategories, "", "a,b,c,d"},
		{"empty category means all", "", "", "a,b,c,d"},
		{"repair only", string(models.CategoryRepair), "", "a,c"},
		{"development only", string(models.CategoryDevelopment), "", "b,d"},
		{"customer match ignores case", AllCategories, "ACME", "a,d"},
		{"product or issue match", AllCategories, "widget", "a,c"},
		{"search within category", string(models.CategoryRepair), "acme", "a"},
		{"issue match", AllCategories, "night", "b"},
		{"whitespace search is empty", AllCategories, "   ", "a,b,c,d"},
		{"no match", AllCategories, "zzz", ""},
		{"unknown category", "SALES", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(items, tt.category, tt.search))
			if got != tt.want {
				t.Errorf("Filter(%q, %q) = %q, want %q", tt.category, tt.search, got, tt.want)
			}
		})
	}
}

func TestFilterAllReturnsCollectionUnchanged(t *testing.T) {
	items := viewFixture()
	got := Filter(items, AllCategories, "")
	if !reflect.DeepEqual(got, items) {
		t.Errorf("Filter(all, \"\") = %+v, want input", got)
	}
}

func TestStatusChart(t *testing.T) {
	chart := StatusChart(models.Stats{Total: 6, Pending: 1, InProgress: 2, Completed: 3})
	if len(chart) != 3 {
		t.Fatalf("len = %d, want 3", len(chart))
	}
	wantNames := []string{"미정", "진행중", "완료"}
	for i, slice := range chart {
		if slice.Name != wantNames[i] || slice.Value != i+1 {
			t.Errorf("chart[%d] = %+v", i, slice)
		}
	}
}
