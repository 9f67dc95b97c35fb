package models

// DatasetKey identifies one of the fixed open-data collections.
type DatasetKey string

const (
	DatasetNature      DatasetKey = "naturaleza"
	DatasetItineraries DatasetKey = "itinerarios"
	DatasetPOI         DatasetKey = "puntos"
)

// Dataset is the static configuration of one collection. Created at startup,
// never mutated.
type Dataset struct {
	Key    DatasetKey `json:"key"`
	Name   string     `json:"name"`
	File   string     `json:"file"`
	Source string     `json:"source"`
	Help   string     `json:"help"`
}

// Datasets returns the three collections in display order.
func Datasets() []Dataset {
	return []Dataset{
		{
			Key:    DatasetNature,
			Name:   "Actividades en la naturaleza",
			File:   "actividades-naturaleza.csv",
			Source: "https://datos.tenerife.es/api/action/package_show?id=7a84fcee-3fc7-4f9b-b6ad-1cf4ba2b5255",
			Help:   "Planes de naturaleza y aire libre. Filtra por caravana, pernocta o grupos; y ordénalo por cercanía.",
		},
		{
			Key:    DatasetItineraries,
			Name:   "Itinerarios de Tenerife",
			File:   "itinerarios-tenerife.csv",
			Source: "https://datos.tenerife.es/api/action/package_show?id=8d10c221-0910-43c5-9b2f-d9df59efded7",
			Help:   "Rutas e itinerarios. Usa el buscador para encontrar senderos por zona o nombre.",
		},
		{
			Key:    DatasetPOI,
			Name:   "Puntos de interés",
			File:   "puntos-interes.csv",
			Source: "https://datos.tenerife.es/api/action/package_show?id=8c56a7ab-2ff9-44f9-986f-6f3a18dc7ac3",
			Help:   "Lugares para descubrir: patrimonio, miradores, cultura, naturaleza…",
		},
	}
}

// Record is one data row: column name as it appeared in the header mapped to
// the raw cell value.
type Record map[string]string

// ColumnKeys resolves semantic roles to the actual column names of a dataset.
// An empty string means the role could not be detected; filters depending on
// it are skipped.
type ColumnKeys struct {
	Municipality string `json:"municipality,omitempty"`
	Name         string `json:"name,omitempty"`
	Place        string `json:"place,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Date         string `json:"date,omitempty"`
	Latitude     string `json:"latitude,omitempty"`
	Longitude    string `json:"longitude,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Municipalities is the fixed list of allowed municipality names.
var Municipalities = []string{
	"Adeje", "Arafo", "Arico", "Arona", "Buenavista del Norte", "Candelaria",
	"El Rosario", "El Sauzal", "El Tanque", "Fasnia", "Garachico",
	"Granadilla de Abona", "Guía de Isora", "Güímar", "Icod de los Vinos",
	"La Guancha", "La Laguna", "La Matanza de Acentejo", "La Orotava",
	"La Victoria de Acentejo", "Los Realejos", "Los Silos",
	"Puerto de la Cruz", "San Juan de la Rambla", "San Miguel de Abona",
	"Santa Cruz de Tenerife", "Santa Úrsula", "Santiago del Teide",
	"Tacoronte", "Tegueste", "Vilaflor de Chasna",
}

// IsMunicipality reports whether name is in the fixed list, exact match.
func IsMunicipality(name string) bool {
	for _, m := range Municipalities {
		if m == name {
			return true
		}
	}
	return false
}
