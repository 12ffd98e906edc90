package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Store is a component store server found on the network.
type Store struct {
	// Instance is the advertised instance name (e.g., "retype-store on studio")
	Instance string

	// Hostname is the mDNS hostname (e.g., "studio.local.")
	Hostname string

	// IP is the preferred address, IPv4 when the store has one
	IP string

	// Port is the HTTP port
	Port int

	// Version is the server version from the TXT record
	Version string

	// Backend names the storage backend (memory, file, sqlite)
	Backend string

	// Metadata contains every TXT record entry
	Metadata map[string]string

	// DiscoveredAt is when the store answered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the store
func (s *Store) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// BaseURL returns the HTTP base URL of the store server
func (s *Store) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a TXT value by key, or returns empty string if not found
func (s *Store) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
