package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxRecent bounds the recently opened component list.
const MaxRecent = 20

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int               `yaml:"version"`
	Stores      map[string]*Store `yaml:"stores,omitempty"` // Keyed by store name
	Recent      []RecentComponent `yaml:"recent,omitempty"` // Most recent first
	Preferences *Preferences      `yaml:"preferences,omitempty"`
}

// Store is a known component store server.
type Store struct {
	URL      string    `yaml:"url"`
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery or successful request
	Backend  string    `yaml:"backend,omitempty"`   // Backend reported by the server
}

// RecentComponent is one entry of the recently opened list.
type RecentComponent struct {
	Store    string    `yaml:"store"`
	ID       string    `yaml:"id"`
	OpenedAt time.Time `yaml:"opened_at"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultStore    string    `yaml:"default_store,omitempty"`
	AutoDiscover    bool      `yaml:"auto_discover"`    // Browse mDNS when no store is configured
	DiscoverTimeout int       `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	LogLevel        string    `yaml:"log_level,omitempty"`
	Viewport        *Viewport `yaml:"viewport,omitempty"` // Headless browser viewport
	Stylesheet      string    `yaml:"stylesheet,omitempty"`
}

// Viewport is the default browser viewport for geometry sampling.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func defaultPreferences() *Preferences {
	return &Preferences{
		AutoDiscover:    true,
		DiscoverTimeout: 5,
		Viewport:        &Viewport{Width: 1280, Height: 800},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Stores:      make(map[string]*Store),
		Preferences: defaultPreferences(),
	}
}

// GetStore returns the named store, or nil.
func (r *Registry) GetStore(name string) *Store {
	return r.Stores[name]
}

// AddStore records a store URL under name. The first store added becomes
// the default.
func (r *Registry) AddStore(name, url string) *Store {
	if r.Stores == nil {
		r.Stores = make(map[string]*Store)
	}
	s, ok := r.Stores[name]
	if !ok {
		s = &Store{}
		r.Stores[name] = s
	}
	s.URL = strings.TrimRight(url, "/")
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	if r.Preferences.DefaultStore == "" {
		r.Preferences.DefaultStore = name
	}
	return s
}

// RemoveStore forgets a store and its recent components.
func (r *Registry) RemoveStore(name string) {
	delete(r.Stores, name)
	kept := r.Recent[:0]
	for _, c := range r.Recent {
		if c.Store != name {
			kept = append(kept, c)
		}
	}
	r.Recent = kept
	if r.Preferences != nil && r.Preferences.DefaultStore == name {
		r.Preferences.DefaultStore = ""
	}
}

// MarkSeen updates the last seen time and backend of a store.
func (r *Registry) MarkSeen(name, backend string) {
	s := r.Stores[name]
	if s == nil {
		return
	}
	s.LastSeen = time.Now()
	if backend != "" {
		s.Backend = backend
	}
}

// StoreNames returns the configured store names in sorted order.
func (r *Registry) StoreNames() []string {
	names := make([]string, 0, len(r.Stores))
	for name := range r.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveStore turns a store name or URL into a base URL. An empty ref
// selects the default store.
func (r *Registry) ResolveStore(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return strings.TrimRight(ref, "/"), nil
	}
	if ref == "" && r.Preferences != nil {
		ref = r.Preferences.DefaultStore
	}
	if ref == "" {
		return "", fmt.Errorf("no store configured")
	}
	s := r.Stores[ref]
	if s == nil {
		return "", fmt.Errorf("unknown store %q", ref)
	}
	return s.URL, nil
}

// TouchComponent moves a component to the front of the recent list.
func (r *Registry) TouchComponent(store, id string) {
	entry := RecentComponent{Store: store, ID: id, OpenedAt: time.Now()}
	out := []RecentComponent{entry}
	for _, c := range r.Recent {
		if c.Store == store && c.ID == id {
			continue
		}
		if len(out) == MaxRecent {
			break
		}
		out = append(out, c)
	}
	r.Recent = out
}
