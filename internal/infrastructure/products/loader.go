// Package products provides the bundled product catalog and the static
// override seed table. Both are embedded JSON, loaded once per process and
// immutable afterwards.
package products

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bodybest/backend/internal/domain"
)

//go:embed products.json
var productsJSON []byte

//go:embed overrides.json
var overridesJSON []byte

// Catalog is an immutable product table with canonical names, an alias index,
// and a stable (alphabetical) key ordering.
type Catalog struct {
	products map[string]domain.Product
	aliases  map[string]string
	keys     []string
}

// NewCatalog builds a catalog from a product list. Names and aliases are
// lower-cased; later duplicates overwrite earlier entries.
func NewCatalog(list []domain.Product) *Catalog {
	c := &Catalog{
		products: make(map[string]domain.Product, len(list)),
		aliases:  make(map[string]string),
	}

	for _, p := range list {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			continue
		}
		if p.ReferenceGrams <= 0 {
			p.ReferenceGrams = 100
		}
		p.Name = name
		c.products[name] = p
		for _, alias := range p.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias != "" && alias != name {
				c.aliases[alias] = name
			}
		}
	}

	c.keys = make([]string, 0, len(c.products))
	for k := range c.products {
		c.keys = append(c.keys, k)
	}
	sort.Strings(c.keys)

	return c
}

// Get returns the product for an exact canonical name
func (c *Catalog) Get(name string) (domain.Product, bool) {
	p, ok := c.products[name]
	return p, ok
}

// CanonicalFor resolves a synonym to its canonical product name
func (c *Catalog) CanonicalFor(alias string) (string, bool) {
	name, ok := c.aliases[alias]
	return name, ok
}

// Keys returns the canonical product names in alphabetical order. The slice
// is shared and must not be modified.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.products)
}

// SeedOverride is one entry of the bundled override table
type SeedOverride struct {
	Food     string              `json:"food"`
	Quantity string              `json:"quantity"`
	Macros   domain.MacroProfile `json:"macros"`
}

var (
	loadOnce     sync.Once
	loadedCat    *Catalog
	loadedSeeds  []SeedOverride
	loadErr      error
)

// Load decodes the embedded catalog and override seed table. The decode runs
// once; subsequent calls return the same immutable catalog.
func Load() (*Catalog, []SeedOverride, error) {
	loadOnce.Do(func() {
		var list []domain.Product
		if err := json.Unmarshal(productsJSON, &list); err != nil {
			loadErr = fmt.Errorf("decoding product catalog: %w", err)
			return
		}

		var seeds []SeedOverride
		if err := json.Unmarshal(overridesJSON, &seeds); err != nil {
			loadErr = fmt.Errorf("decoding override seeds: %w", err)
			return
		}

		loadedCat = NewCatalog(list)
		loadedSeeds = seeds
	})

	return loadedCat, loadedSeeds, loadErr
}
