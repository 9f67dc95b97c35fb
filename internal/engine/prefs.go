package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/titoih/mi-municipio/internal/models"
)

// Preferences is a single-record store holding the last-viewed municipality,
// used to decide whether to auto-select one on startup. Backed by a small
// JSON file.
type Preferences struct {
	path string
}

type prefRecord struct {
	LastMunicipality string `json:"last_municipality"`
}

func NewPreferences(path string) *Preferences {
	return &Preferences{path: path}
}

// LastMunicipality returns the stored name, or "" when unset, unreadable or
// no longer in the allowed list.
func (p *Preferences) LastMunicipality() string {
	body, err := os.ReadFile(p.path)
	if err != nil {
		return ""
	}
	var rec prefRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return ""
	}
	if !models.IsMunicipality(rec.LastMunicipality) {
		return ""
	}
	return rec.LastMunicipality
}

// SetLastMunicipality persists the name. Names outside the fixed list are
// ignored.
func (p *Preferences) SetLastMunicipality(name string) error {
	if !models.IsMunicipality(name) {
		return nil
	}
	body, err := json.Marshal(prefRecord{LastMunicipality: name})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, body, 0o644)
}
