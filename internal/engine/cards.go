package engine

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/titoih/mi-municipio/internal/models"
)

// The three known datasets get bespoke item shapes built from their real
// columns; anything else falls back to the generic name/place/contact form.
// Item is the tagged union over those variants: exactly one field is set.
type Item struct {
	Nature    *NatureItem    `json:"nature,omitempty"`
	Itinerary *ItineraryItem `json:"itinerary,omitempty"`
	POI       *POIItem       `json:"poi,omitempty"`
	Generic   *GenericItem   `json:"generic,omitempty"`
}

type NatureItem struct {
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	Infrastructure string   `json:"infrastructure,omitempty"`
	Description    string   `json:"description,omitempty"`
	Caravan        *bool    `json:"caravan,omitempty"`
	Overnight      *bool    `json:"overnight,omitempty"`
	Groups         *bool    `json:"groups,omitempty"`
	MaxPersons     *int     `json:"maxPersons,omitempty"`
	LeadDays       *int     `json:"leadDays,omitempty"`
	DaysAvailable  string   `json:"daysAvailable,omitempty"`
	DistanceKm     *float64 `json:"distanceKm,omitempty"`
	MapURL         string   `json:"mapUrl,omitempty"`
	DirectionsURL  string   `json:"directionsUrl,omitempty"`
}

type ItineraryItem struct {
	Title          string   `json:"title"`
	Code           string   `json:"code,omitempty"`
	Name           string   `json:"name,omitempty"`
	Start          string   `json:"start,omitempty"`
	End            string   `json:"end,omitempty"`
	DistanceKm     *float64 `json:"distanceKm,omitempty"`
	MinAltitudeM   *int     `json:"minAltitudeM,omitempty"`
	MaxAltitudeM   *int     `json:"maxAltitudeM,omitempty"`
	AscentM        *int     `json:"ascentM,omitempty"`
	DescentM       *int     `json:"descentM,omitempty"`
	Class          string   `json:"class,omitempty"`
	Modality       string   `json:"modality,omitempty"`
	Municipalities string   `json:"municipalities,omitempty"`
	NaturalSpaces  string   `json:"naturalSpaces,omitempty"`
}

type POIItem struct {
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	Subtype       string `json:"subtype,omitempty"`
	NaturalSpace  string `json:"naturalSpace,omitempty"`
	Description   string `json:"description,omitempty"`
	MapURL        string `json:"mapUrl,omitempty"`
	DirectionsURL string `json:"directionsUrl,omitempty"`
	ShareText     string `json:"shareText,omitempty"`
}

type GenericItem struct {
	Title         string `json:"title"`
	MapURL        string `json:"mapUrl,omitempty"`
	DirectionsURL string `json:"directionsUrl,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// BuildItem shapes one filtered record for presentation.
func BuildItem(key models.DatasetKey, r models.Record, keys models.ColumnKeys, headers []string) Item {
	switch key {
	case models.DatasetNature:
		return Item{Nature: buildNatureItem(r, keys)}
	case models.DatasetItineraries:
		return Item{Itinerary: buildItineraryItem(r)}
	case models.DatasetPOI:
		return Item{POI: buildPOIItem(r, keys)}
	}
	return Item{Generic: buildGenericItem(r, keys, headers)}
}

func buildNatureItem(r models.Record, keys models.ColumnKeys) *NatureItem {
	it := &NatureItem{
		Name:           strings.TrimSpace(r["actividad_nombre"]),
		Type:           strings.TrimSpace(r["actividad_tipo"]),
		Infrastructure: strings.TrimSpace(r["infraestructura"]),
		Description:    clampText(r["actividad_descripcion"], 170),
		DaysAvailable:  strings.Join(strings.Fields(r["dias_disponible"]), " "),
	}
	if it.Name == "" {
		it.Name = "Actividad"
	}
	if v, ok := ParseBoolLoose(r[colCaravan]); ok {
		it.Caravan = &v
	}
	if v, ok := ParseBoolLoose(r[colOvernight]); ok {
		it.Overnight = &v
	}
	if v, ok := ParseBoolLoose(r[colGroups]); ok {
		it.Groups = &v
	}
	if n, ok := ParseNumber(r[colMaxPersons]); ok {
		rounded := int(math.Round(n))
		it.MaxPersons = &rounded
	}
	if n, ok := ParseNumber(r["maximo_dias_antelacion"]); ok {
		rounded := int(math.Round(n))
		it.LeadDays = &rounded
	}
	if d, ok := ParseNumber(r[DistanceKey]); ok {
		it.DistanceKm = &d
	}
	if p, ok := RecordPoint(r, keys); ok {
		it.MapURL = MapsViewURL(p)
		it.DirectionsURL = MapsNavURL(p)
	}
	return it
}

func buildItineraryItem(r models.Record) *ItineraryItem {
	it := &ItineraryItem{
		Code:           strings.TrimSpace(r["itinerario_matricula"]),
		Name:           strings.TrimSpace(r["itinerario_nombre"]),
		Start:          strings.TrimSpace(r["itinerario_inicio"]),
		End:            strings.TrimSpace(r["itinerario_fin"]),
		Class:          strings.TrimSpace(r["itinerario_clase"]),
		Modality:       strings.TrimSpace(r["itinerario_modalidad"]),
		Municipalities: strings.TrimSpace(r["municipios_nombres"]),
		NaturalSpaces:  strings.TrimSpace(r["espacios_naturales"]),
	}
	if n, ok := ParseNumber(r["itinerario_distancia"]); ok {
		it.DistanceKm = &n
	}
	it.MinAltitudeM = roundedMeters(r["itinerario_altura_minima"])
	it.MaxAltitudeM = roundedMeters(r["itinerario_altura_maxima"])
	it.AscentM = roundedMeters(r["itinerario_desnivel_positivo"])
	it.DescentM = roundedMeters(r["itinerario_desnivel_negativo"])

	parts := make([]string, 0, 2)
	if it.Code != "" {
		parts = append(parts, it.Code)
	}
	if it.Name != "" {
		parts = append(parts, it.Name)
	}
	it.Title = strings.Join(parts, " — ")
	if it.Title == "" {
		it.Title = "Itinerario"
	}
	return it
}

func buildPOIItem(r models.Record, keys models.ColumnKeys) *POIItem {
	it := &POIItem{
		Name:         strings.TrimSpace(r["punto_interes_nombre"]),
		Type:         strings.TrimSpace(r[colPOIType]),
		Subtype:      strings.TrimSpace(r["punto_interes_subtipo"]),
		NaturalSpace: strings.TrimSpace(r["espacio_natural_nombre"]),
		Description:  clampText(r["punto_interes_descripcion"], 160),
	}
	if it.Name == "" {
		it.Name = "Punto de interés"
	}
	if p, ok := RecordPoint(r, keys); ok {
		it.MapURL = MapsViewURL(p)
		it.DirectionsURL = MapsNavURL(p)
	}
	it.ShareText = poiShareText(it)
	return it
}

func poiShareText(it *POIItem) string {
	var b strings.Builder
	b.WriteString(it.Name)
	if it.Type != "" {
		b.WriteString(" (" + it.Type + ")")
	}
	if it.Subtype != "" {
		b.WriteString(" - " + it.Subtype)
	}
	b.WriteString("\n")
	if it.NaturalSpace != "" {
		b.WriteString("Espacio natural: " + it.NaturalSpace + "\n")
	}
	if it.Description != "" {
		b.WriteString(it.Description + "\n")
	}
	if it.MapURL != "" {
		b.WriteString("Mapa: " + it.MapURL)
	}
	return b.String()
}

func buildGenericItem(r models.Record, keys models.ColumnKeys, headers []string) *GenericItem {
	var name, place string
	if keys.Name != "" {
		name = strings.TrimSpace(r[keys.Name])
	}
	if keys.Place != "" {
		place = strings.TrimSpace(r[keys.Place])
	}

	title := joinNonEmpty(" — ", name, place)
	if title == "" {
		first, second := fallbackFields(r, headers)
		title = joinNonEmpty(" — ", first, second)
	}
	if title == "" {
		title = "Elemento"
	}

	it := &GenericItem{Title: title}
	if p, ok := RecordPoint(r, keys); ok {
		it.MapURL = MapsViewURL(p)
		it.DirectionsURL = MapsNavURL(p)
	}
	if keys.Email != "" {
		it.Email = strings.TrimSpace(r[keys.Email])
	}
	if keys.Phone != "" {
		it.Phone = CleanPhone(r[keys.Phone])
	}
	return it
}

// fallbackFields picks the first two non-empty values in header order.
func fallbackFields(r models.Record, headers []string) (first, second string) {
	for _, h := range headers {
		v := strings.TrimSpace(r[h])
		if v == "" {
			continue
		}
		if first == "" {
			first = v
			continue
		}
		second = v
		return
	}
	return
}

func roundedMeters(s string) *int {
	n, ok := ParseNumber(s)
	if !ok {
		return nil
	}
	rounded := int(math.Round(n))
	return &rounded
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// clampText trims and cuts a description to max runes, marking the cut.
func clampText(s string, max int) string {
	t := strings.TrimSpace(s)
	runes := []rune(t)
	if len(runes) <= max {
		return t
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// CleanPhone keeps digits and a leading plus, nothing else.
func CleanPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MapsViewURL links a coordinate on Google Maps.
func MapsViewURL(p Point) string {
	q := url.QueryEscape(fmt.Sprintf("%v,%v", p.Lat, p.Lon))
	return "https://www.google.com/maps?q=" + q
}

// MapsNavURL links driving directions to a coordinate.
func MapsNavURL(p Point) string {
	d := url.QueryEscape(fmt.Sprintf("%v,%v", p.Lat, p.Lon))
	return "https://www.google.com/maps/dir/?api=1&destination=" + d + "&travelmode=driving"
}

// SessionSummary is the headline of a municipality ficha.
type SessionSummary struct {
	Municipality   string `json:"municipality"`
	NatureTotal    int    `json:"natureTotal"`
	ItineraryTotal int    `json:"itineraryTotal"`
	POITotal       int    `json:"poiTotal"`
}

// Line renders the summary the way the ficha shows it.
func (s SessionSummary) Line() string {
	return fmt.Sprintf("Resumen: %d actividades naturaleza · %d itinerarios · %d puntos de interés.",
		s.NatureTotal, s.ItineraryTotal, s.POITotal)
}

// ShareText is the share/export payload for a whole municipality ficha.
func (s SessionSummary) ShareText() string {
	return fmt.Sprintf("Ficha de %s\n%s\n\nDatos: datos.tenerife.es", s.Municipality, s.Line())
}
