package connector

import (
	"sort"
	"sync"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/domain"
)

// Registry maps retailer slugs to constructed connectors. It is populated at
// startup so the pipeline dispatches without a growing slug switch, and test
// doubles can be registered in its place.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds or replaces the connector for its slug.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Slug()] = c
}

// Lookup returns the connector for a retailer slug, or false when none is
// registered.
func (r *Registry) Lookup(slug string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[slug]
	return c, ok
}

// Slugs returns the registered retailer slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.connectors))
	for slug := range r.connectors {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// NewDefaultRegistry builds the production registry: one connector per
// supported retailer, configured from the connectors section.
func NewDefaultRegistry(cfg *config.ConnectorsConfig) *Registry {
	r := NewRegistry()
	for _, region := range []domain.Region{domain.RegionUS, domain.RegionCA} {
		r.Register(NewAmazonConnector(region, cfg))
		r.Register(NewWalmartConnector(region, cfg))
		r.Register(NewCostcoConnector(region, cfg))
	}
	return r
}
