package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/titoih/mi-municipio/internal/models"
)

// DateMode selects a quick date bucket for the nature dataset.
type DateMode int

const (
	DateAll DateMode = iota
	DateToday
	DateWeekend
	DateMonth
)

// ParseDateMode translates the raw control value into a DateMode. Anything
// unknown, including the "all" sentinel, disables the filter.
func ParseDateMode(s string) DateMode {
	switch s {
	case "today":
		return DateToday
	case "weekend":
		return DateWeekend
	case "month":
		return DateMonth
	}
	return DateAll
}

// QueryState is the typed filter/sort configuration of one dataset card.
// Zero values mean "filter off": empty category strings, DateAll, false
// toggles, zero group size, nil coordinate.
type QueryState struct {
	Search       string
	Difficulty   string
	DateMode     DateMode
	POIType      string
	Caravan      bool
	Overnight    bool
	Groups       bool
	MinGroupSize int
	UserLoc      *Point
	SortNear     bool
}

// DistanceKey is the reserved, transient annotation a proximity sort adds to
// a copy of each record with a computable coordinate. It is never written
// back into the store.
const DistanceKey = "__dist_km"

// Bespoke nature/POI columns used by dataset-specific filters and cards.
// These are the only column names resolved outside the detection layer.
const (
	colCaravan    = "permite_caravana"
	colOvernight  = "pernocta"
	colGroups     = "actividad_para_grupos"
	colMaxPersons = "maximo_personas"
	colPOIType    = "punto_interes_tipo"
)

// Recompute applies the full filter chain to a municipality-scoped record
// set and returns the new ordered view. Filters that do not apply pass the
// input through unchanged and unreordered. The proximity step runs last
// because it both annotates and reorders.
func Recompute(items []models.Record, q QueryState, keys models.ColumnKeys, key models.DatasetKey, headers []string, now time.Time) []models.Record {
	out := items

	if key == models.DatasetItineraries && keys.Difficulty != "" {
		out = filterContains(out, keys.Difficulty, q.Difficulty)
	}
	if key == models.DatasetNature && keys.Date != "" {
		out = filterDate(out, keys.Date, q.DateMode, now)
	}
	if key == models.DatasetPOI {
		out = filterContains(out, colPOIType, q.POIType)
	}
	if key == models.DatasetNature {
		out = filterNature(out, q)
	}

	out = filterSearch(out, headers, q.Search)

	if key == models.DatasetNature && q.SortNear && q.UserLoc != nil {
		out = sortByDistance(out, keys, *q.UserLoc)
	}
	return out
}

// filterContains keeps records whose normalized column value contains the
// normalized wanted value. An empty wanted value disables the filter.
func filterContains(items []models.Record, column, wanted string) []models.Record {
	w := Normalize(wanted)
	if w == "" {
		return items
	}
	var out []models.Record
	for _, r := range items {
		if strings.Contains(Normalize(r[column]), w) {
			out = append(out, r)
		}
	}
	return out
}

// filterDate keeps records whose parsed date falls in the selected bucket.
// The weekend bucket targets the upcoming Saturday/Sunday pair via
// (6-weekday+7)%7 with Sunday as 0, so on a Sunday it already points at the
// next weekend and the current day is excluded. That matches the upstream
// behavior this engine replaces.
func filterDate(items []models.Record, column string, mode DateMode, now time.Time) []models.Record {
	if mode == DateAll {
		return items
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := int(today.Weekday()) // Sunday = 0
	saturday := today.AddDate(0, 0, (6-day+7)%7)
	sunday := saturday.AddDate(0, 0, 1)
	monthEnd := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, now.Location())

	var out []models.Record
	for _, r := range items {
		d, ok := ParseDate(r[column])
		if !ok {
			continue
		}
		switch mode {
		case DateToday:
			if !d.Before(today) && d.Before(today.Add(24*time.Hour)) {
				out = append(out, r)
			}
		case DateWeekend:
			if !d.Before(saturday) && !d.After(sunday) {
				out = append(out, r)
			}
		case DateMonth:
			if !d.Before(today) && !d.After(monthEnd) {
				out = append(out, r)
			}
		}
	}
	return out
}

// filterNature applies the independently togglable boolean filters and the
// minimum group size threshold. Indeterminate boolean values and missing or
// non-numeric capacities are excluded by an enabled filter.
func filterNature(items []models.Record, q QueryState) []models.Record {
	out := items
	if q.Caravan {
		out = filterBool(out, colCaravan)
	}
	if q.Overnight {
		out = filterBool(out, colOvernight)
	}
	if q.Groups {
		out = filterBool(out, colGroups)
	}
	if q.MinGroupSize > 0 {
		var kept []models.Record
		for _, r := range out {
			if capacity, ok := ParseNumber(r[colMaxPersons]); ok && capacity >= float64(q.MinGroupSize) {
				kept = append(kept, r)
			}
		}
		out = kept
	}
	return out
}

func filterBool(items []models.Record, column string) []models.Record {
	var out []models.Record
	for _, r := range items {
		if v, ok := ParseBoolLoose(r[column]); ok && v {
			out = append(out, r)
		}
	}
	return out
}

func filterSearch(items []models.Record, headers []string, query string) []models.Record {
	w := Normalize(query)
	if w == "" {
		return items
	}
	var out []models.Record
	for _, r := range items {
		if strings.Contains(recordBlob(r, headers), w) {
			out = append(out, r)
		}
	}
	return out
}

// sortByDistance annotates a copy of each record carrying a parsable
// coordinate with its distance from the user and sorts ascending. Records
// without a computable distance sort after all records that have one, their
// relative order preserved.
func sortByDistance(items []models.Record, keys models.ColumnKeys, from Point) []models.Record {
	type scored struct {
		rec  models.Record
		dist float64
		ok   bool
	}

	all := make([]scored, 0, len(items))
	for _, r := range items {
		s := scored{rec: r}
		if p, ok := RecordPoint(r, keys); ok {
			s.dist = HaversineKm(from.Lat, from.Lon, p.Lat, p.Lon)
			s.ok = true
			annotated := make(models.Record, len(r)+1)
			for k, v := range r {
				annotated[k] = v
			}
			annotated[DistanceKey] = strconv.FormatFloat(s.dist, 'f', -1, 64)
			s.rec = annotated
		}
		all = append(all, s)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ok != all[j].ok {
			return all[i].ok
		}
		if !all[i].ok {
			return false
		}
		return all[i].dist < all[j].dist
	})

	out := make([]models.Record, len(all))
	for i, s := range all {
		out[i] = s.rec
	}
	return out
}

// RecordPoint extracts the record's coordinate through the detected
// latitude/longitude columns.
func RecordPoint(r models.Record, keys models.ColumnKeys) (Point, bool) {
	if keys.Latitude == "" || keys.Longitude == "" {
		return Point{}, false
	}
	lat, ok := ParseNumber(r[keys.Latitude])
	if !ok {
		return Point{}, false
	}
	lon, ok := ParseNumber(r[keys.Longitude])
	if !ok {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// ParseBoolLoose parses the loose boolean vocabulary of the source files.
// The second return is false for indeterminate values.
func ParseBoolLoose(s string) (value, ok bool) {
	switch Normalize(s) {
	case "1", "si", "true", "t", "yes", "y":
		return true, true
	case "0", "no", "false", "f", "n":
		return false, true
	}
	return false, false
}

// ParseNumber parses a numeric cell, tolerating the decimal comma used in
// the source files.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2.1.2006",
}

// ParseDate parses a record date field against the known layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
