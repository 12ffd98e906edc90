package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/logging"
)

const (
	// ServiceType is the mDNS service type store servers advertise
	ServiceType = "_retype._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for store discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 7070

	// APIPath is advertised in the "path" TXT record
	APIPath = "/api"
)

// Scanner handles mDNS store discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every store that answers before the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Store, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The resolver closes entries once ctx is done.
	go func() {
		var stores []*Store
		seen := make(map[string]bool)
		for entry := range entries {
			st := parseServiceEntry(entry)
			if st == nil || seen[st.Instance] {
				continue
			}
			seen[st.Instance] = true
			stores = append(stores, st)
		}
		collected <- stores
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	select {
	case stores := <-collected:
		return stores, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS browse did not finish")
	}
}

// Find waits for the store advertised as instance.
func (s *Scanner) Find(ctx context.Context, instance string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Store, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			st := parseServiceEntry(entry)
			if st != nil && st.Instance == instance {
				select {
				case found <- st:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case st := <-found:
		return st, nil
	case <-ctx.Done():
		select {
		case st := <-found:
			return st, nil
		default:
		}
		return nil, fmt.Errorf("store %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf entry to a Store. It returns nil
// for entries without an instance name or an address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Store {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Store{
		Instance:     unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Version:      metadata["version"],
		Backend:      metadata["backend"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// unescapeInstance drops the DNS-SD escaping of spaces and dots.
func unescapeInstance(s string) string {
	return strings.NewReplacer(`\ `, " ", `\.`, ".").Replace(s)
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("mDNS advertisement withdrawn")
}

// TXTRecords builds the TXT entries a store server advertises.
func TXTRecords(version, backend string) []string {
	return []string{"path=" + APIPath, "version=" + version, "backend=" + backend}
}

// Advertise registers a store server listening on port.
func Advertise(instance string, port int, version, backend string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, TXTRecords(version, backend), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising store over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}
