package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/titoih/mi-municipio/internal/engine"
	"github.com/titoih/mi-municipio/internal/models"
)

// maxSessions caps the ficha registry; the oldest session is evicted when a
// new selection would exceed it.
const maxSessions = 100

// Handler serves the core's interface to the presentation layer. The store
// starts nil: routes answer 503 until the background load completes.
type Handler struct {
	mu       sync.RWMutex
	store    *engine.Store
	sessions map[string]*engine.Session
	prefs    *engine.Preferences
	log      *zap.Logger
}

func NewHandler(store *engine.Store, prefs *engine.Preferences, log *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		sessions: make(map[string]*engine.Session),
		prefs:    prefs,
		log:      log,
	}
}

// SetData swaps in the freshly loaded store once the batch load finishes.
func (h *Handler) SetData(store *engine.Store) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = store
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/municipios", h.ListMunicipalities)
	api.POST("/municipios/:name", h.SelectMunicipality)
	api.GET("/fichas/:id", h.GetFicha)
	api.POST("/fichas/:id/:dataset/query", h.UpdateQuery)
	api.POST("/fichas/:id/:dataset/more", h.ShowMore)
	api.GET("/fichas/:id/:dataset/export", h.Export)
	api.GET("/fichas/:id/share", h.Share)
}

// --- HANDLERS ---

func (h *Handler) GetStatus(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.store == nil {
		return c.JSON(http.StatusOK, map[string]any{"status": "loading"})
	}
	counts := map[string]int{}
	for _, ds := range h.store.Datasets() {
		counts[string(ds.Key)] = len(ds.Records)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ready",
		"records":          counts,
		"lastMunicipality": h.prefs.LastMunicipality(),
	})
}

func (h *Handler) ListMunicipalities(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Municipalities)
}

type fichaResponse struct {
	ID           string                `json:"id"`
	Municipality string                `json:"municipality"`
	Summary      engine.SessionSummary `json:"summary"`
	SummaryLine  string                `json:"summaryLine"`
	Cards        []cardView            `json:"cards"`
}

type cardView struct {
	Dataset  models.DatasetKey `json:"dataset"`
	Name     string            `json:"name"`
	Help     string            `json:"help"`
	Source   string            `json:"source"`
	Keys     models.ColumnKeys `json:"keys"`
	Total    int               `json:"total"`
	Shown    int               `json:"shown"`
	HasMore  bool              `json:"hasMore"`
	POITypes []string          `json:"poiTypes,omitempty"`
	Items    []engine.Item     `json:"items"`
}

func buildCardView(card *engine.Card) cardView {
	page := card.Page()
	items := make([]engine.Item, 0, len(page))
	for _, r := range page {
		items = append(items, engine.BuildItem(card.Dataset.Key, r, card.Keys, card.Headers))
	}
	return cardView{
		Dataset:  card.Dataset.Key,
		Name:     card.Dataset.Name,
		Help:     card.Dataset.Help,
		Source:   card.Dataset.Source,
		Keys:     card.Keys,
		Total:    len(card.Filtered),
		Shown:    len(page),
		HasMore:  card.HasMore(),
		POITypes: card.POITypes,
		Items:    items,
	}
}

func (h *Handler) fichaResponse(s *engine.Session) fichaResponse {
	res := fichaResponse{
		ID:           s.ID,
		Municipality: s.Municipality,
		Summary:      s.Summary(),
	}
	res.SummaryLine = res.Summary.Line()
	for _, key := range []models.DatasetKey{models.DatasetNature, models.DatasetItineraries, models.DatasetPOI} {
		if card := s.Card(key); card != nil {
			res.Cards = append(res.Cards, buildCardView(card))
		}
	}
	return res
}

// SelectMunicipality opens a new ficha session for a municipality from the
// fixed list, discarding nothing: old sessions stay addressable until
// evicted.
func (h *Handler) SelectMunicipality(c echo.Context) error {
	name := c.Param("name")
	if !models.IsMunicipality(name) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown municipality: %s", name))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "datasets still loading")
	}

	session := engine.NewSession(h.store, name)
	h.evictOldestLocked()
	h.sessions[session.ID] = session

	if err := h.prefs.SetLastMunicipality(name); err != nil {
		h.log.Warn("persist municipality preference", zap.Error(err))
	}
	h.log.Info("municipality selected",
		zap.String("municipality", name),
		zap.String("session", session.ID))

	return c.JSON(http.StatusOK, h.fichaResponse(session))
}

func (h *Handler) evictOldestLocked() {
	for len(h.sessions) >= maxSessions {
		oldestID := ""
		var oldest time.Time
		for id, s := range h.sessions {
			if oldestID == "" || s.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = s.CreatedAt
			}
		}
		delete(h.sessions, oldestID)
	}
}

func (h *Handler) GetFicha(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "ficha not found")
	}
	return c.JSON(http.StatusOK, h.fichaResponse(session))
}

// queryRequest carries the raw control inputs. String sentinels and loose
// values are translated into the typed QueryState here, at the boundary.
type queryRequest struct {
	Search       string   `json:"search"`
	Difficulty   string   `json:"difficulty"`
	DateMode     string   `json:"dateMode"`
	POIType      string   `json:"poiType"`
	Caravan      bool     `json:"caravan"`
	Overnight    bool     `json:"overnight"`
	Groups       bool     `json:"groups"`
	MinGroupSize int      `json:"minGroupSize"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	SortNear     bool     `json:"sortNear"`
}

func (r queryRequest) toState() engine.QueryState {
	q := engine.QueryState{
		Search:    r.Search,
		DateMode:  engine.ParseDateMode(r.DateMode),
		Caravan:   r.Caravan,
		Overnight: r.Overnight,
		Groups:    r.Groups,
		SortNear:  r.SortNear,
	}
	if r.Difficulty != "" && r.Difficulty != "all" {
		q.Difficulty = r.Difficulty
	}
	if r.POIType != "" && r.POIType != "all" {
		q.POIType = r.POIType
	}
	if r.MinGroupSize > 0 {
		q.MinGroupSize = r.MinGroupSize
	}
	if r.Lat != nil && r.Lon != nil {
		q.UserLoc = &engine.Point{Lat: *r.Lat, Lon: *r.Lon}
	}
	return q
}

func (h *Handler) card(c echo.Context) (*engine.Card, error) {
	session, ok := h.sessions[c.Param("id")]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "ficha not found")
	}
	card := session.Card(models.DatasetKey(c.Param("dataset")))
	if card == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown dataset")
	}
	return card, nil
}

func (h *Handler) UpdateQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query body")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	card, err := h.card(c)
	if err != nil {
		return err
	}
	card.SetQuery(req.toState(), time.Now())
	return c.JSON(http.StatusOK, buildCardView(card))
}

func (h *Handler) ShowMore(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	card, err := h.card(c)
	if err != nil {
		return err
	}
	card.ShowMore()
	return c.JSON(http.StatusOK, buildCardView(card))
}

// Export streams the current filtered view, not just the exposed page.
func (h *Handler) Export(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	card, err := h.card(c)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s.%s", card.Dataset.Key, c.QueryParam("format"))
	switch c.QueryParam("format") {
	case "xlsx":
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return engine.WriteXLSX(c.Response(), string(card.Dataset.Key), card.Headers, card.Filtered)
	case "", "csv":
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s.csv", card.Dataset.Key)))
		c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		return engine.WriteCSV(c.Response(), card.Headers, card.Filtered)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "unknown export format")
}

func (h *Handler) Share(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "ficha not found")
	}
	summary := session.Summary()
	return c.JSON(http.StatusOK, map[string]string{
		"title": "Ficha de " + session.Municipality,
		"text":  summary.ShareText(),
	})
}
