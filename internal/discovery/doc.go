// Package discovery finds component store servers on the local network
// and advertises them, using multicast DNS service discovery.
//
// Store servers register as "_retype._tcp" with TXT records describing the
// API path, the server version and the storage backend:
//
//	path=/api version=1.2.0 backend=sqlite
//
// # Usage Example
//
//	// Browse for stores for five seconds
//	stores, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, st := range stores {
//	    fmt.Printf("%s -> %s\n", st.Instance, st.BaseURL())
//	}
//
//	// Advertise a server listening on 7070
//	ad, err := discovery.Advertise("studio", 7070, version.Version, "sqlite")
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Stores must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// Scans are independent; several may run at the same time.
package discovery
