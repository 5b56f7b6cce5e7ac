// Package catalog holds the fixed, externally supplied list of
// recommendable learning materials. The catalog is loaded once at process
// start and never mutated afterwards.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

//go:embed materials.json
var embeddedMaterials []byte

// Catalog is a read-only material list with title lookup.
type Catalog struct {
	materials []model.Material
	byTitle   map[string]model.Material
}

// Load builds the catalog from an optional JSON file path. An empty path
// loads the embedded default list.
func Load(_ context.Context, path string) (*Catalog, error) {
	data := embeddedMaterials
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
		}
		data = b
	}

	var materials []model.Material
	if err := json.Unmarshal(data, &materials); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	c := &Catalog{
		materials: materials,
		byTitle:   make(map[string]model.Material, len(materials)),
	}
	for _, m := range materials {
		c.byTitle[m.Title] = m
	}
	return c, nil
}

// Materials returns the full material list in catalog order.
func (c *Catalog) Materials() []model.Material { return c.materials }

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.materials) }

// Lookup resolves a material by its exact title.
func (c *Catalog) Lookup(title string) (model.Material, bool) {
	m, ok := c.byTitle[title]
	return m, ok
}
