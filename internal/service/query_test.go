package service

import (
	"fmt"
	"testing"
	"time"

	"platewatch-service/internal/domain/platewatch"
)

// sampleDetections builds n detections one minute apart, inserted out of
// capture order like a store with back-dated submissions.
func sampleDetections(n int) []platewatch.Detection {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	sources := []string{"North Gate", "South Gate", "Lot A"}
	out := make([]platewatch.Detection, 0, n)
	for i := 0; i < n; i++ {
		dir := platewatch.DirectionEntry
		if i%3 == 0 {
			dir = platewatch.DirectionExit
		}
		offset := (i * 7) % n
		out = append(out, platewatch.Detection{
			ID:         int64(i + 1),
			Plate:      fmt.Sprintf("CAM-%03d", i),
			Source:     sources[i%len(sources)],
			Direction:  dir,
			CapturedAt: platewatch.FormatTime(base.Add(time.Duration(offset) * time.Minute)),
		})
	}
	return out
}

func ids(ds []platewatch.Detection) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestQuerySortsByCapturedAtDescending(t *testing.T) {
	page := QueryDetections(sampleDetections(10), platewatch.DetectionFilter{}, 1, 100)

	if len(page.Data) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(page.Data))
	}
	for i := 1; i < len(page.Data); i++ {
		if page.Data[i-1].CapturedAt < page.Data[i].CapturedAt {
			t.Fatalf("Rows not sorted at %d: %s < %s", i, page.Data[i-1].CapturedAt, page.Data[i].CapturedAt)
		}
	}
}

func TestQueryDoesNotMutateInput(t *testing.T) {
	all := sampleDetections(10)
	before := ids(all)
	QueryDetections(all, platewatch.DetectionFilter{}, 1, 5)
	after := ids(all)
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("QueryDetections reordered its input")
		}
	}
}

func TestQueryDirectionPartition(t *testing.T) {
	all := sampleDetections(25)

	entries := QueryDetections(all, platewatch.DetectionFilter{Direction: platewatch.DirectionEntry}, 1, 100)
	exits := QueryDetections(all, platewatch.DetectionFilter{Direction: platewatch.DirectionExit}, 1, 100)

	seen := make(map[int64]platewatch.Direction)
	for _, d := range entries.Data {
		seen[d.ID] = d.Direction
	}
	for _, d := range exits.Data {
		if _, dup := seen[d.ID]; dup {
			t.Fatalf("Detection %d appears in both entry and exit results", d.ID)
		}
		seen[d.ID] = d.Direction
	}
	if len(seen) != len(all) {
		t.Fatalf("Expected union of %d rows, got %d", len(all), len(seen))
	}
	if entries.Pagination.Total+exits.Pagination.Total != len(all) {
		t.Errorf("Totals do not add up: %d + %d", entries.Pagination.Total, exits.Pagination.Total)
	}
}

func TestQueryPaginationIsExhaustive(t *testing.T) {
	all := sampleDetections(23)
	full := QueryDetections(all, platewatch.DetectionFilter{}, 1, 100).Data

	for _, limit := range []int{1, 4, 5, 10, 23, 50} {
		var got []platewatch.Detection
		first := QueryDetections(all, platewatch.DetectionFilter{}, 1, limit)
		for page := 1; ; page++ {
			p := QueryDetections(all, platewatch.DetectionFilter{}, page, limit)
			got = append(got, p.Data...)
			if page*limit >= p.Pagination.Total {
				break
			}
		}

		if len(got) != len(full) {
			t.Fatalf("limit %d: expected %d rows, got %d", limit, len(full), len(got))
		}
		for i := range full {
			if got[i].ID != full[i].ID {
				t.Fatalf("limit %d: row %d differs: %d vs %d", limit, i, got[i].ID, full[i].ID)
			}
		}

		wantPages := (len(all) + limit - 1) / limit
		if first.Pagination.Pages != wantPages {
			t.Errorf("limit %d: expected %d pages, got %d", limit, wantPages, first.Pagination.Pages)
		}
	}
}

func TestQueryPageBeyondEnd(t *testing.T) {
	page := QueryDetections(sampleDetections(5), platewatch.DetectionFilter{}, 4, 2)

	if len(page.Data) != 0 {
		t.Fatalf("Expected empty data, got %d rows", len(page.Data))
	}
	if page.Data == nil {
		t.Error("Expected non-nil empty data")
	}
	want := platewatch.Pagination{Page: 4, Limit: 2, Total: 5, Pages: 3}
	if page.Pagination != want {
		t.Errorf("Expected %+v, got %+v", want, page.Pagination)
	}
}

func TestQueryHugePage(t *testing.T) {
	const hugePage = 100000000000000001
	page := QueryDetections(sampleDetections(8), platewatch.DetectionFilter{}, hugePage, 100)

	if page.Data == nil || len(page.Data) != 0 {
		t.Fatalf("Expected empty non-nil data, got %#v", page.Data)
	}
	want := platewatch.Pagination{Page: hugePage, Limit: 100, Total: 8, Pages: 1}
	if page.Pagination != want {
		t.Errorf("Expected %+v, got %+v", want, page.Pagination)
	}
}

func TestQueryEmpty(t *testing.T) {
	page := QueryDetections(nil, platewatch.DetectionFilter{}, 1, 20)
	if page.Pagination.Total != 0 || page.Pagination.Pages != 0 || len(page.Data) != 0 {
		t.Errorf("Unexpected empty result %+v", page)
	}
}

func TestFilterDetections(t *testing.T) {
	all := []platewatch.Detection{
		{ID: 1, Plate: "ABC-100", Source: "North Gate", Direction: platewatch.DirectionEntry},
		{ID: 2, Plate: "ABC-101", Source: "South Gate", Direction: platewatch.DirectionExit},
		{ID: 3, Plate: "XYZ-200", Source: "North Gate", Direction: platewatch.DirectionExit},
		{ID: 4, Plate: "QABC 9", Source: "Lot A", Direction: platewatch.DirectionEntry},
	}

	tests := []struct {
		name   string
		filter platewatch.DetectionFilter
		want   []int64
	}{
		{"no filter", platewatch.DetectionFilter{}, []int64{1, 2, 3, 4}},
		{"search lowercase", platewatch.DetectionFilter{Search: "abc"}, []int64{1, 2, 4}},
		{"search trimmed", platewatch.DetectionFilter{Search: "  xyz "}, []int64{3}},
		{"source exact", platewatch.DetectionFilter{Source: "North Gate"}, []int64{1, 3}},
		{"source is not substring", platewatch.DetectionFilter{Source: "North"}, []int64{}},
		{"direction", platewatch.DetectionFilter{Direction: platewatch.DirectionExit}, []int64{2, 3}},
		{"combined", platewatch.DetectionFilter{Search: "ABC", Source: "North Gate", Direction: platewatch.DirectionEntry}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterDetections(all, tt.filter))
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestFindDetection(t *testing.T) {
	all := sampleDetections(3)
	if d, ok := FindDetection(all, 2); !ok || d.ID != 2 {
		t.Errorf("Expected to find id 2, got %+v %v", d, ok)
	}
	if _, ok := FindDetection(all, 99); ok {
		t.Error("Expected id 99 to be missing")
	}
}

func TestSummarize(t *testing.T) {
	today := "2026-03-14"
	all := []platewatch.Detection{
		{Plate: "A", Direction: platewatch.DirectionEntry, CapturedAt: today + "T01:00:00.000Z"},
		{Plate: "A", Direction: platewatch.DirectionExit, CapturedAt: today + "T02:00:00.000Z"},
		{Plate: "B", Direction: platewatch.DirectionEntry, CapturedAt: today + "T03:00:00.000Z"},
		{Plate: "B", Direction: platewatch.DirectionEntry, CapturedAt: today + "T04:00:00.000Z"},
		{Plate: "C", Direction: platewatch.DirectionExit, CapturedAt: today + "T05:00:00.000Z"},
		{Plate: "D", Direction: platewatch.DirectionEntry, CapturedAt: "2026-03-13T23:59:59.000Z"},
	}

	entries, exits, unique := Summarize(all, today)
	if entries != 3 || exits != 2 || unique != 3 {
		t.Errorf("Expected 3/2/3, got %d/%d/%d", entries, exits, unique)
	}
}
