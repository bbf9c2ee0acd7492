package sources

import (
	"fmt"

	"github.com/guloader/guloader/pkg/fetch"
)

// Registry maps adapter-type identifiers to adapter instances. Several site
// types may alias the same implementation; lookups are by the configured
// type string, never by URL sniffing. The registry is immutable after
// construction and safe for concurrent use.
type Registry struct {
	scanners    map[string]Scanner
	downloaders map[string]Downloader
	catalogs    map[string]Catalog
}

// NewRegistry builds the registry of built-in adapter families, all sharing
// one injected fetch client.
func NewRegistry(client *fetch.Client) *Registry {
	eros := NewEros(client)
	madara := NewMadara(client)

	return &Registry{
		scanners: map[string]Scanner{
			"eros":   eros,
			"madara": madara,
			// thunderscans is served by the same template engine
			"thunder": madara,
		},
		downloaders: map[string]Downloader{
			"eros":    eros,
			"madara":  madara,
			"thunder": madara,
		},
		catalogs: map[string]Catalog{
			"eros":    eros,
			"madara":  madara,
			"thunder": madara,
		},
	}
}

func (r *Registry) Scanner(typ string) (Scanner, error) {
	s, ok := r.scanners[typ]
	if !ok {
		return nil, fmt.Errorf("no scanner for type %q: %w", typ, ErrSiteNotSupported)
	}
	return s, nil
}

func (r *Registry) Downloader(typ string) (Downloader, error) {
	d, ok := r.downloaders[typ]
	if !ok {
		return nil, fmt.Errorf("no downloader for type %q: %w", typ, ErrSiteNotSupported)
	}
	return d, nil
}

func (r *Registry) Catalog(typ string) (Catalog, error) {
	c, ok := r.catalogs[typ]
	if !ok {
		return nil, fmt.Errorf("no catalog for type %q: %w", typ, ErrSiteNotSupported)
	}
	return c, nil
}
