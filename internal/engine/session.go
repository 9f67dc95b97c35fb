package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/titoih/mi-municipio/internal/models"
)

const (
	// LimitStart is the page size of a freshly opened card.
	LimitStart = 8
	// LimitStep is how much one "show more" action grows the page.
	LimitStep = 15
)

// Card is the per-dataset view state inside a session: the scoped records,
// the detected keys, the current filter configuration and the derived view.
// The view is always fully replaced on recompute, never patched.
type Card struct {
	Dataset  models.Dataset
	Keys     models.ColumnKeys
	Headers  []string
	Items    []models.Record
	POITypes []string
	Query    QueryState
	Filtered []models.Record
	Limit    int
}

// Session is the owned context of one open municipality view. It is created
// on selection, disposed on the next selection, and holds no references into
// any other session's state.
type Session struct {
	ID           string
	Municipality string
	CreatedAt    time.Time
	Cards        map[models.DatasetKey]*Card
}

// NewSession scopes every dataset to the municipality and opens one card per
// dataset with default query state.
func NewSession(store *Store, municipality string) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		Municipality: municipality,
		CreatedAt:    time.Now(),
		Cards:        make(map[models.DatasetKey]*Card),
	}
	for _, ds := range store.Datasets() {
		items := ScopeToMunicipality(ds, municipality)
		card := &Card{
			Dataset:  ds.Dataset,
			Keys:     ds.Keys,
			Headers:  ds.Headers,
			Items:    items,
			Filtered: items,
			Limit:    LimitStart,
		}
		if ds.Key == models.DatasetPOI {
			card.POITypes = POITypes(items)
		}
		s.Cards[ds.Key] = card
	}
	return s
}

// Card returns the card for key, or nil.
func (s *Session) Card(key models.DatasetKey) *Card {
	return s.Cards[key]
}

// Summary is the municipality ficha headline with per-dataset totals.
func (s *Session) Summary() SessionSummary {
	sum := SessionSummary{Municipality: s.Municipality}
	if c := s.Cards[models.DatasetNature]; c != nil {
		sum.NatureTotal = len(c.Items)
	}
	if c := s.Cards[models.DatasetItineraries]; c != nil {
		sum.ItineraryTotal = len(c.Items)
	}
	if c := s.Cards[models.DatasetPOI]; c != nil {
		sum.POITotal = len(c.Items)
	}
	return sum
}

// SetQuery replaces the card's filter configuration and recomputes the view.
func (c *Card) SetQuery(q QueryState, now time.Time) {
	c.Query = q
	c.Recompute(now)
}

// SetSearch updates the free-text query. Like every mutator it leaves
// recomputation to the caller so several fields can change in one pass.
func (c *Card) SetSearch(q string)          { c.Query.Search = q }
func (c *Card) SetDifficulty(level string)  { c.Query.Difficulty = level }
func (c *Card) SetDateMode(mode DateMode)   { c.Query.DateMode = mode }
func (c *Card) SetPOIType(t string)         { c.Query.POIType = t }
func (c *Card) SetCaravan(on bool)          { c.Query.Caravan = on }
func (c *Card) SetOvernight(on bool)        { c.Query.Overnight = on }
func (c *Card) SetGroups(on bool)           { c.Query.Groups = on }
func (c *Card) SetMinGroupSize(n int)       { c.Query.MinGroupSize = n }
func (c *Card) SetUserLocation(p *Point)    { c.Query.UserLoc = p }
func (c *Card) SetSortNear(on bool)         { c.Query.SortNear = on }

// Recompute rebuilds the filtered view from the scoped records and clamps
// the pagination limit. The limit is never raised back up automatically;
// only ShowMore grows it.
func (c *Card) Recompute(now time.Time) {
	c.Filtered = Recompute(c.Items, c.Query, c.Keys, c.Dataset.Key, c.Headers, now)
	if c.Limit > len(c.Filtered) {
		c.Limit = len(c.Filtered)
		if c.Limit < LimitStart {
			c.Limit = LimitStart
		}
	}
}

// ShowMore grows the limit by one step, up to the view length.
func (c *Card) ShowMore() {
	c.Limit = NextLimit(c.Limit, LimitStep, len(c.Filtered))
}

// HasMore reports whether a "show more" action would expose anything.
func (c *Card) HasMore() bool {
	return c.Limit < len(c.Filtered)
}

// Page returns the currently exposed slice of the filtered view.
func (c *Card) Page() []models.Record {
	n := c.Limit
	if n > len(c.Filtered) {
		n = len(c.Filtered)
	}
	return c.Filtered[:n]
}

// NextLimit is the pagination growth rule.
func NextLimit(current, increment, total int) int {
	next := current + increment
	if next > total {
		next = total
	}
	return next
}
