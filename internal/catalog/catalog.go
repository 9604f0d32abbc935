// Package catalog declares the Battle.net endpoints known to the service and
// a registry that looks them up by name without knowing their DTO types.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/bnet/internal/config"
	"github.com/okian/bnet/internal/domain/dto"
	"github.com/okian/bnet/internal/domain/endpoint"
	"github.com/okian/bnet/internal/domain/namespace"
)

// Built-in endpoints.
var (
	Realm = endpoint.MustNew[dto.Realm]("realm",
		"/data/wow/realm/{realmSlug}", namespace.Dynamic)
	CharacterProfile = endpoint.MustNew[dto.CharacterProfile]("character-profile",
		"/profile/wow/character/{realmSlug}/{characterName}", namespace.Profile)
	CharacterMedia = endpoint.MustNew[dto.CharacterMedia]("character-media",
		"/profile/wow/character/{realmSlug}/{characterName}/character-media", namespace.Profile)
	Guild = endpoint.MustNew[dto.Guild]("guild",
		"/data/wow/guild/{realmSlug}/{nameSlug}", namespace.Profile)
	PlayableClass = endpoint.MustNew[dto.PlayableClass]("playable-class",
		"/data/wow/playable-class/{classId}", namespace.Static)
	Mount = endpoint.MustNew[dto.Mount]("mount",
		"/data/wow/mount/{mountId}", namespace.Static)
)

// Sentinel kinds for registry errors.
var (
	ErrUnknownEndpoint   = errors.New("unknown endpoint")
	ErrDuplicateEndpoint = errors.New("endpoint already registered")
)

// LookupFunc fetches one resource and returns its decoded DTO.
type LookupFunc func(ctx context.Context, t endpoint.Transport, params ...string) (any, error)

// Entry describes a registered endpoint.
type Entry struct {
	Name      string              `json:"name"`
	Template  string              `json:"path"`
	Namespace namespace.Namespace `json:"namespace"`
	Params    []string            `json:"params"`

	lookup LookupFunc
}

// Lookup dispatches the entry's endpoint over t.
func (e Entry) Lookup(ctx context.Context, t endpoint.Transport, params ...string) (any, error) {
	return e.lookup(ctx, t, params...)
}

// Registry maps endpoint names to entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e to r. Names must be unique.
func Register[T any](r *Registry, e endpoint.Endpoint[T]) error {
	if e.Name() == "" {
		return fmt.Errorf("%w: endpoint is not initialised", endpoint.ErrInvalidRequest)
	}
	entry := Entry{
		Name:      e.Name(),
		Template:  e.Template(),
		Namespace: e.Namespace(),
		Params:    e.Params(),
		lookup: func(ctx context.Context, t endpoint.Transport, params ...string) (any, error) {
			out, err := e.Fetch(ctx, t, params...)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, entry.Name)
	}
	r.entries[entry.Name] = entry
	return nil
}

// RegisterConfigured adds endpoints declared in configuration. Their
// responses decode into dto.Raw.
func RegisterConfigured(r *Registry, eps []config.Endpoint) error {
	for _, c := range eps {
		ns, err := namespace.Parse(c.Namespace)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", c.Name, err)
		}
		e, err := endpoint.New[dto.Raw](c.Name, c.Path, ns)
		if err != nil {
			return err
		}
		if err := Register(r, e); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return e, nil
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default returns a registry holding the built-in endpoints.
func Default() *Registry {
	r := NewRegistry()
	mustRegister(r, Realm)
	mustRegister(r, CharacterProfile)
	mustRegister(r, CharacterMedia)
	mustRegister(r, Guild)
	mustRegister(r, PlayableClass)
	mustRegister(r, Mount)
	return r
}

func mustRegister[T any](r *Registry, e endpoint.Endpoint[T]) {
	if err := Register(r, e); err != nil {
		panic(err)
	}
}
