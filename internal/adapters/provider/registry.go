package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
)

// Registry resolves adapters by name. It is filled at startup and read-only
// afterwards.
type Registry struct {
	adapters map[string]ports.ProviderAdapter
	fallback string
}

// NewRegistry registers adapters; fallback names the one used when a request
// does not pick a provider.
func NewRegistry(fallback string, adapters ...ports.ProviderAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]ports.ProviderAdapter), fallback: strings.ToLower(fallback)}
	for _, a := range adapters {
		r.adapters[strings.ToLower(a.Name())] = a
	}
	if _, ok := r.adapters[r.fallback]; !ok {
		return nil, domain.NewServiceError(domain.ErrConfiguration,
			fmt.Sprintf("default provider %q is not registered", fallback), "UNKNOWN_PROVIDER")
	}
	return r, nil
}

// Get returns the adapter registered under name, or the default for "".
func (r *Registry) Get(name string) (ports.ProviderAdapter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = r.fallback
	}
	a, ok := r.adapters[key]
	if !ok {
		return nil, domain.NewServiceError(domain.ErrUnknownProvider,
			fmt.Sprintf("provider %q is not supported", name), "UNKNOWN_PROVIDER")
	}
	return a, nil
}

// Default is the name used when a request names no provider.
func (r *Registry) Default() string {
	return r.fallback
}

// Names lists the registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
