package engine

import (
	"strings"

	"github.com/titoih/mi-municipio/internal/models"
)

// Each dataset carries its own unvalidated column set, so semantic roles are
// located by probing the header against ordered candidate lists. Matching is
// case-insensitive and exact; the first candidate found wins. A role with no
// match stays empty and every dependent filter is skipped.

var (
	municipalityCandidates = []string{
		"municipio_nombre", "municipio", "tm_municipio",
		"municipio_descripcion", "municipio_desc", "municipios_nombres",
	}

	nameCandidates = []string{
		"nombre", "titulo", "título", "title", "denominacion", "denominación",
		"itinerario", "ruta", "sendero", "actividad",
		"punto_interes_nombre", "punto_interes", "poi_nombre", "poi",
		"recurso", "actividad_nombre", "itinerario_nombre",
	}

	placeCandidates = []string{
		"lugar", "zona", "direccion", "dirección", "localizacion",
		"localización", "municipio_nombre", "municipio", "barrio", "entorno",
		"itinerario_inicio", "itinerario_fin",
	}

	difficultyCandidates = []string{
		"dificultad", "nivel", "nivel_dificultad", "grado",
	}

	dateCandidates = []string{
		"fecha", "date", "fecha_inicio", "inicio",
		"fecha_actividad", "fecha_evento",
	}

	latitudeCandidates  = []string{"latitud", "lat", "latitude"}
	longitudeCandidates = []string{"longitud", "lon", "longitude"}

	emailCandidates = []string{"email", "correo", "correo_electronico", "mail"}
	phoneCandidates = []string{"telefono", "teléfono", "phone", "movil", "móvil"}
)

// DetectColumn returns the actual header name for the first matching
// candidate, or "" when the role is absent.
func DetectColumn(headers []string, candidates []string) string {
	for _, c := range candidates {
		for _, h := range headers {
			if strings.EqualFold(h, c) {
				return h
			}
		}
	}
	return ""
}

// DetectKeys resolves every semantic role for one dataset. Detection runs
// once per dataset load and is stable for the lifetime of the data.
// Difficulty only applies to itineraries and date only to nature activities;
// probing them elsewhere would pick up unrelated columns.
func DetectKeys(key models.DatasetKey, headers []string) models.ColumnKeys {
	keys := models.ColumnKeys{
		Municipality: DetectColumn(headers, municipalityCandidates),
		Name:         DetectColumn(headers, nameCandidates),
		Place:        DetectColumn(headers, placeCandidates),
		Latitude:     DetectColumn(headers, latitudeCandidates),
		Longitude:    DetectColumn(headers, longitudeCandidates),
		Email:        DetectColumn(headers, emailCandidates),
		Phone:        DetectColumn(headers, phoneCandidates),
	}
	if key == models.DatasetItineraries {
		keys.Difficulty = DetectColumn(headers, difficultyCandidates)
	}
	if key == models.DatasetNature {
		keys.Date = DetectColumn(headers, dateCandidates)
	}
	return keys
}
