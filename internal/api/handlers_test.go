package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/titoih/mi-municipio/internal/engine"
	"github.com/titoih/mi-municipio/internal/models"
)

func testStore() *engine.Store {
	natureHeaders := []string{"actividad_nombre", "municipio", "permite_caravana"}
	natureRecords := []models.Record{
		{"actividad_nombre": "Paseo del bosque", "municipio": "La Laguna", "permite_caravana": "Sí"},
		{"actividad_nombre": "Acampada alta", "municipio": "La Laguna", "permite_caravana": "no"},
		{"actividad_nombre": "Zona sur", "municipio": "Arona", "permite_caravana": "Sí"},
	}
	itinHeaders := []string{"itinerario_nombre", "municipio"}
	itinRecords := []models.Record{
		{"itinerario_nombre": "PR 1", "municipio": "Arona, La Laguna"},
	}
	poiHeaders := []string{"punto_interes_nombre", "municipio", "punto_interes_tipo"}
	poiRecords := []models.Record{
		{"punto_interes_nombre": "Mirador", "municipio": "San Cristóbal de La Laguna", "punto_interes_tipo": "Ocio"},
	}

	build := func(key models.DatasetKey, name string, headers []string, records []models.Record) *engine.LoadedDataset {
		return &engine.LoadedDataset{
			Dataset: models.Dataset{Key: key, Name: name},
			Headers: headers,
			Records: records,
			Keys:    engine.DetectKeys(key, headers),
		}
	}
	return engine.NewStore([]*engine.LoadedDataset{
		build(models.DatasetNature, "Actividades en la naturaleza", natureHeaders, natureRecords),
		build(models.DatasetItineraries, "Itinerarios de Tenerife", itinHeaders, itinRecords),
		build(models.DatasetPOI, "Puntos de interés", poiHeaders, poiRecords),
	})
}

func newTestHandler(t *testing.T, store *engine.Store) (*Handler, *echo.Echo) {
	t.Helper()
	prefs := engine.NewPreferences(filepath.Join(t.TempDir(), "prefs.json"))
	h := NewHandler(store, prefs, zap.NewNop())
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func openFicha(t *testing.T, e *echo.Echo, municipality string) fichaResponse {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/municipios/"+url.PathEscape(municipality), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res fichaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestStatusWhileLoading(t *testing.T) {
	_, e := newTestHandler(t, nil)

	rec := doJSON(e, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loading"`)

	rec = doJSON(e, http.MethodPost, "/api/municipios/Arona", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusAfterSetData(t *testing.T) {
	h, e := newTestHandler(t, nil)
	h.SetData(testStore())

	rec := doJSON(e, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string         `json:"status"`
		Records map[string]int `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, 3, body.Records["naturaleza"])
}

func TestListMunicipalities(t *testing.T) {
	_, e := newTestHandler(t, testStore())

	rec := doJSON(e, http.MethodGet, "/api/municipios", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Len(t, names, 31)
	assert.Contains(t, names, "Garachico")
}

func TestSelectMunicipality(t *testing.T) {
	_, e := newTestHandler(t, testStore())

	res := openFicha(t, e, "La Laguna")
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "La Laguna", res.Municipality)
	assert.Equal(t, 2, res.Summary.NatureTotal)
	assert.Equal(t, 1, res.Summary.ItineraryTotal)
	assert.Equal(t, 1, res.Summary.POITotal)
	assert.Contains(t, res.SummaryLine, "Resumen: 2 actividades naturaleza")

	require.Len(t, res.Cards, 3)
	nature := res.Cards[0]
	assert.Equal(t, models.DatasetNature, nature.Dataset)
	assert.Equal(t, 2, nature.Total)
	assert.Equal(t, 2, nature.Shown)
	assert.False(t, nature.HasMore)

	poi := res.Cards[2]
	assert.Equal(t, []string{"Ocio"}, poi.POITypes)
}

func TestSelectUnknownMunicipality(t *testing.T) {
	_, e := newTestHandler(t, testStore())

	rec := doJSON(e, http.MethodPost, "/api/municipios/Atlantis", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectPersistsPreference(t *testing.T) {
	prefs := engine.NewPreferences(filepath.Join(t.TempDir(), "prefs.json"))
	h := NewHandler(testStore(), prefs, zap.NewNop())
	e := echo.New()
	h.RegisterRoutes(e)

	openFicha(t, e, "Tegueste")
	assert.Equal(t, "Tegueste", prefs.LastMunicipality())
}

func TestGetFicha(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "Arona")

	rec := doJSON(e, http.MethodGet, "/api/fichas/"+res.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/fichas/desconocida", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateQuery(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodPost, "/api/fichas/"+res.ID+"/naturaleza/query",
		`{"caravan":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var card cardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, 1, card.Total)
	require.Len(t, card.Items, 1)
	require.NotNil(t, card.Items[0].Nature)
	assert.Equal(t, "Paseo del bosque", card.Items[0].Nature.Name)

	// the "all" sentinel clears a category filter
	rec = doJSON(e, http.MethodPost, "/api/fichas/"+res.ID+"/naturaleza/query",
		`{"poiType":"all","difficulty":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, 2, card.Total)
}

func TestUpdateQueryUnknownDataset(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodPost, "/api/fichas/"+res.ID+"/otros/query", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShowMore(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodPost, "/api/fichas/"+res.ID+"/naturaleza/more", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var card cardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, card.Total, card.Shown)
	assert.False(t, card.HasMore)
}

func TestExportCSV(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodGet, "/api/fichas/"+res.ID+"/naturaleza/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "naturaleza.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "actividad_nombre,municipio,permite_caravana", lines[0])
}

func TestExportXLSX(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodGet, "/api/fichas/"+res.ID+"/naturaleza/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "spreadsheetml")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestExportUnknownFormat(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodGet, "/api/fichas/"+res.ID+"/naturaleza/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShare(t *testing.T) {
	_, e := newTestHandler(t, testStore())
	res := openFicha(t, e, "La Laguna")

	rec := doJSON(e, http.MethodGet, "/api/fichas/"+res.ID+"/share", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ficha de La Laguna", body["title"])
	assert.Contains(t, body["text"], "datos.tenerife.es")
}

func TestSessionEviction(t *testing.T) {
	h, e := newTestHandler(t, testStore())

	first := openFicha(t, e, "Arona")
	h.mu.Lock()
	h.sessions[first.ID].CreatedAt = time.Now().Add(-time.Hour)
	h.mu.Unlock()

	for i := 0; i < maxSessions; i++ {
		openFicha(t, e, "Tegueste")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.LessOrEqual(t, len(h.sessions), maxSessions)
	_, ok := h.sessions[first.ID]
	assert.False(t, ok, "oldest session should be evicted")
}
