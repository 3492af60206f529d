// Package modes holds the immutable catalog of hardware display modes
// advertised by a panel. The catalog is built once at startup and never
// changes; lookups are lock-free.
package modes

import (
	"fmt"
	"sort"

	"github.com/lumen-display/lumen/internal/domain"
)

// Catalog is the set of display modes one panel supports.
type Catalog struct {
	ordered []domain.DisplayMode // ascending by rate, then id
	byID    map[domain.ModeID]domain.DisplayMode
}

// NewCatalog validates and builds a catalog.
func NewCatalog(list []domain.DisplayMode) (*Catalog, error) {
	if len(list) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	byID := make(map[domain.ModeID]domain.DisplayMode, len(list))
	ordered := make([]domain.DisplayMode, 0, len(list))
	for _, m := range list {
		if !m.Fps.IsValid() {
			return nil, fmt.Errorf("%w: mode %d has rate %v", domain.ErrInvalidRate, m.ID, m.Fps)
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: id %d", domain.ErrDuplicateMode, m.ID)
		}
		byID[m.ID] = m
		ordered = append(ordered, m)
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Fps.EqualsWithMargin(ordered[j].Fps) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Fps < ordered[j].Fps
	})

	return &Catalog{ordered: ordered, byID: byID}, nil
}

// Lookup returns the mode with the given id.
func (c *Catalog) Lookup(id domain.ModeID) (domain.DisplayMode, error) {
	m, ok := c.byID[id]
	if !ok {
		return domain.DisplayMode{}, fmt.Errorf("%w: id %d", domain.ErrUnknownMode, id)
	}
	return m, nil
}

// Has reports whether the catalog contains the given id.
func (c *Catalog) Has(id domain.ModeID) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every mode, ascending by refresh rate.
func (c *Catalog) All() []domain.DisplayMode {
	out := make([]domain.DisplayMode, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of modes.
func (c *Catalog) Len() int { return len(c.ordered) }

// MinSupported returns the lowest refresh rate in the catalog.
func (c *Catalog) MinSupported() domain.Fps { return c.ordered[0].Fps }

// MaxSupported returns the highest refresh rate in the catalog.
func (c *Catalog) MaxSupported() domain.Fps { return c.ordered[len(c.ordered)-1].Fps }
