package service

import (
	"sort"
	"strings"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// QueryDetections filters, sorts newest capture first and slices one page.
// The input slice is not modified. A page past the end yields empty data with
// the real totals.
func QueryDetections(all []platewatch.Detection, f platewatch.DetectionFilter, page, limit int) platewatch.DetectionPage {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows := FilterDetections(all, f)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CapturedAt > rows[j].CapturedAt
	})

	total := len(rows)
	pages := (total + limit - 1) / limit

	data := []platewatch.Detection{}
	if page <= pages {
		start := (page - 1) * limit
		end := start + limit
		if end > total {
			end = total
		}
		data = rows[start:end]
	}

	return platewatch.DetectionPage{
		Data: data,
		Pagination: platewatch.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}
}

// FilterDetections applies the AND of the non-empty filter fields and returns
// a new slice.
func FilterDetections(all []platewatch.Detection, f platewatch.DetectionFilter) []platewatch.Detection {
	needle := utils.NormalizeSearch(f.Search)
	source := strings.TrimSpace(f.Source)

	out := make([]platewatch.Detection, 0, len(all))
	for _, d := range all {
		if needle != "" && !strings.Contains(d.Plate, needle) {
			continue
		}
		if source != "" && d.Source != source {
			continue
		}
		if f.Direction != "" && d.Direction != f.Direction {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FindDetection scans for id.
func FindDetection(all []platewatch.Detection, id int64) (platewatch.Detection, bool) {
	for _, d := range all {
		if d.ID == id {
			return d, true
		}
	}
	return platewatch.Detection{}, false
}

// Summarize counts detections captured on the UTC day given as "YYYY-MM-DD".
func Summarize(all []platewatch.Detection, day string) (entries, exits, unique int) {
	plates := make(map[string]struct{})
	for _, d := range all {
		if !strings.HasPrefix(d.CapturedAt, day) {
			continue
		}
		switch d.Direction {
		case platewatch.DirectionEntry:
			entries++
		case platewatch.DirectionExit:
			exits++
		}
		plates[d.Plate] = struct{}{}
	}
	return entries, exits, len(plates)
}
