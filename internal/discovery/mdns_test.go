package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name:     "store with IPv4",
			entry:    entry("studio", "studio.local.", 7070, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/api", "version=1.2.0"),
			wantName: "studio",
			wantIP:   "192.168.4.16",
			wantPort: 7070,
		},
		{
			name:     "escaped instance name",
			entry:    entry(`retype\ store\ on\ mac\.lan`, "mac.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantName: "retype store on mac.lan",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:     "no port defaults",
			entry:    entry("studio", "studio.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantName: "studio",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name:     "IPv6 only",
			entry:    entry("studio", "studio.local.", 7070, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantName: "studio",
			wantIP:   "fe80::1",
			wantPort: 7070,
		},
		{
			name:     "prefers IPv4",
			entry:    entry("studio", "studio.local.", 7070, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantName: "studio",
			wantIP:   "192.168.1.50",
			wantPort: 7070,
		},
		{
			name:    "no address",
			entry:   entry("studio", "studio.local.", 7070, nil, nil),
			wantNil: true,
		},
		{
			name:    "no instance",
			entry:   entry("", "studio.local.", 7070, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if st != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", st)
				}
				return
			}
			if st == nil {
				t.Fatal("parseServiceEntry() = nil, want store")
			}
			if st.Instance != tt.wantName {
				t.Errorf("Instance = %v, want %v", st.Instance, tt.wantName)
			}
			if st.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", st.IP, tt.wantIP)
			}
			if st.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", st.Port, tt.wantPort)
			}
			if st.Hostname != tt.entry.HostName {
				t.Errorf("Hostname = %v, want %v", st.Hostname, tt.entry.HostName)
			}
			if time.Since(st.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", st.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	e := entry("studio", "studio.local.", 7070, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		TXTRecords("1.2.0", "sqlite")...)
	e.Text = append(e.Text, "flag")

	st := parseServiceEntry(e)
	if st == nil {
		t.Fatal("parseServiceEntry() = nil, want store")
	}

	want := map[string]string{
		"path":    APIPath,
		"version": "1.2.0",
		"backend": "sqlite",
		"flag":    "",
	}
	if len(st.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d", len(st.Metadata), len(want))
	}
	for key, value := range want {
		if got, ok := st.Metadata[key]; !ok || got != value {
			t.Errorf("Metadata[%q] = %q, want %q", key, got, value)
		}
	}
	if st.Version != "1.2.0" || st.Backend != "sqlite" {
		t.Errorf("Version = %q Backend = %q", st.Version, st.Backend)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiseRequiresInstance(t *testing.T) {
	if _, err := Advertise("", 7070, "dev", "memory"); err == nil {
		t.Error("Advertise() without instance should fail")
	}
	var a *Advertisement
	a.Shutdown()
}
