package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/titoih/mi-municipio/internal/models"
)

// LoadedDataset is the static dataset configuration combined with its parsed
// records and detected column keys.
type LoadedDataset struct {
	models.Dataset
	Headers []string
	Records []models.Record
	Keys    models.ColumnKeys
}

// Store owns all records for the process lifetime after a successful load.
type Store struct {
	order    []models.DatasetKey
	datasets map[models.DatasetKey]*LoadedDataset
}

// NewStore builds a store from loaded datasets, preserving their order.
func NewStore(datasets []*LoadedDataset) *Store {
	s := &Store{datasets: make(map[models.DatasetKey]*LoadedDataset, len(datasets))}
	for _, ds := range datasets {
		s.order = append(s.order, ds.Key)
		s.datasets[ds.Key] = ds
	}
	return s
}

// Dataset returns the loaded dataset for key, or nil.
func (s *Store) Dataset(key models.DatasetKey) *LoadedDataset {
	return s.datasets[key]
}

// Datasets returns all loaded datasets in display order.
func (s *Store) Datasets() []*LoadedDataset {
	out := make([]*LoadedDataset, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.datasets[key])
	}
	return out
}

// LoadError marks a dataset fetch or read failure. Any single failure aborts
// the whole load batch; no partial state is exposed.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset %s: %v", e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches and assembles the dataset batch.
type Loader struct {
	dataDir string
	client  *http.Client
	log     *zap.Logger
}

func NewLoader(dataDir string, timeout time.Duration, log *zap.Logger) *Loader {
	return &Loader{
		dataDir: dataDir,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// LoadAll fetches the three datasets concurrently. All must load, or the
// first failure aborts the batch.
func (l *Loader) LoadAll(ctx context.Context) (*Store, error) {
	configs := models.Datasets()
	loaded := make([]*LoadedDataset, len(configs))

	g, ctx := errgroup.WithContext(ctx)
	for i, ds := range configs {
		i, ds := i, ds
		g.Go(func() error {
			raw, err := l.fetch(ctx, ds.File)
			if err != nil {
				return &LoadError{Locator: ds.File, Err: err}
			}
			records, headers := ParseRecords(raw)
			loaded[i] = &LoadedDataset{
				Dataset: ds,
				Headers: headers,
				Records: records,
				Keys:    DetectKeys(ds.Key, headers),
			}
			l.log.Info("dataset loaded",
				zap.String("dataset", string(ds.Key)),
				zap.Int("records", len(records)),
				zap.Int("columns", len(headers)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewStore(loaded), nil
}

// fetch resolves a locator either over HTTP or against the data directory.
func (l *Loader) fetch(ctx context.Context, locator string) (string, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
		if err != nil {
			return "", err
		}
		res, err := l.client.Do(req)
		if err != nil {
			return "", err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected status %s", res.Status)
		}
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	body, err := os.ReadFile(filepath.Join(l.dataDir, locator))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ScopeToMunicipality returns the records of ds belonging to the given
// municipality. With a detected municipality column the comparison is
// alias-aware equality; the itineraries dataset additionally matches by
// substring because it stores comma-joined municipality lists. Without a
// detected column the whole record is scanned as a normalized blob, which is
// O(records × total field length) and the accepted cost of schema
// irregularity.
func ScopeToMunicipality(ds *LoadedDataset, municipality string) []models.Record {
	m := NormalizeMunicipality(municipality)
	alt := m
	// the source files for some collections store the short colloquial form
	if m == "san cristobal de la laguna" {
		alt = "la laguna"
	}

	var out []models.Record
	if key := ds.Keys.Municipality; key != "" {
		q := Normalize(municipality)
		for _, r := range ds.Records {
			v := NormalizeMunicipality(r[key])
			if v == m || v == alt ||
				(ds.Key == models.DatasetItineraries && strings.Contains(Normalize(r[key]), q)) {
				out = append(out, r)
			}
		}
		return out
	}

	for _, r := range ds.Records {
		blob := recordBlob(r, ds.Headers)
		if strings.Contains(blob, m) || strings.Contains(blob, alt) {
			out = append(out, r)
		}
	}
	return out
}

// recordBlob concatenates all field values in header order and normalizes
// the result, for whole-record substring matching.
func recordBlob(r models.Record, headers []string) string {
	values := make([]string, 0, len(headers))
	for _, h := range headers {
		values = append(values, r[h])
	}
	return Normalize(strings.Join(values, " "))
}

// POITypes derives the distinct non-empty category values across scoped
// point-of-interest records, sorted with Spanish collation, for use as
// filter-control options.
func POITypes(scoped []models.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range scoped {
		t := strings.TrimSpace(r[colPOIType])
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	collate.New(language.Spanish).SortStrings(out)
	return out
}
