// Package scraper builds deal catalogs from retailer flyers.
package scraper

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/akciovadasz/backend/internal/model"
)

// SourceKind selects how a flyer is retrieved and parsed.
type SourceKind string

const (
	KindHTML     SourceKind = "html"
	KindPDF      SourceKind = "pdf"
	KindRendered SourceKind = "rendered"
)

// Selectors locate product fields inside an HTML flyer. Item selects one
// product card; the remaining selectors are relative to it.
type Selectors struct {
	Item          string `yaml:"item"`
	Name          string `yaml:"name"`
	SalePrice     string `yaml:"sale_price"`
	OriginalPrice string `yaml:"original_price"`
	Unit          string `yaml:"unit"`
	Category      string `yaml:"category"`
	Image         string `yaml:"image"`
	ValidUntil    string `yaml:"valid_until"`
}

// FlyerSource describes where one store publishes its weekly deals.
type FlyerSource struct {
	Store           model.Store `yaml:"store"`
	Kind            SourceKind  `yaml:"kind"`
	URL             string      `yaml:"url"`
	Selectors       Selectors   `yaml:"selectors"`
	WaitFor         string      `yaml:"wait_for"`
	DefaultCategory string      `yaml:"default_category"`
	// ValidDays is used when the flyer does not print an end date.
	ValidDays int `yaml:"valid_days"`
}

// SourcesFile is the on-disk layout of the flyer sources YAML.
type SourcesFile struct {
	Sources []FlyerSource `yaml:"sources"`
}

const (
	defaultValidDays = 7
	defaultCategory  = "Alapvető élelmiszerek"
)

// LoadSources reads and validates a flyer sources file.
func LoadSources(path string) ([]FlyerSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flyer sources: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes the YAML document and fills defaults.
func ParseSources(data []byte) ([]FlyerSource, error) {
	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing flyer sources: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("flyer sources: no sources defined")
	}

	seen := make(map[model.Store]bool)
	for i := range file.Sources {
		src := &file.Sources[i]

		store, ok := model.ParseStore(string(src.Store))
		if !ok {
			return nil, fmt.Errorf("flyer source %d: unknown store %q", i, src.Store)
		}
		if seen[store] {
			return nil, fmt.Errorf("flyer source %d: duplicate store %s", i, store)
		}
		seen[store] = true
		src.Store = store

		src.Kind = SourceKind(strings.ToLower(string(src.Kind)))
		switch src.Kind {
		case KindHTML, KindRendered:
			if src.Selectors.Item == "" || src.Selectors.Name == "" || src.Selectors.SalePrice == "" {
				return nil, fmt.Errorf("flyer source %s: item, name and sale_price selectors are required", store)
			}
		case KindPDF:
		default:
			return nil, fmt.Errorf("flyer source %s: %w %q", store, ErrUnsupportedSource, src.Kind)
		}

		if src.URL == "" {
			return nil, fmt.Errorf("flyer source %s: url is required", store)
		}
		if src.ValidDays <= 0 {
			src.ValidDays = defaultValidDays
		}
		if src.DefaultCategory == "" {
			src.DefaultCategory = defaultCategory
		}
	}
	return file.Sources, nil
}

// NeedsBrowser reports whether any source requires a headless browser.
func NeedsBrowser(sources []FlyerSource) bool {
	for _, s := range sources {
		if s.Kind == KindRendered {
			return true
		}
	}
	return false
}
