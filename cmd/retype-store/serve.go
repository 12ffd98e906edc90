package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/discovery"
	"github.com/muurk/retype/internal/storeserver"
)

var (
	host           string
	port           int
	logLevel       string
	region         string
	stylesheet     string
	allowAnyOrigin bool
	advertise      bool
	instance       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the component store server",
	Long: `Start the HTTP server for the component store.

Routes:
  GET  /api/component/{id}         fetch a component
  PUT  /api/component/{id}         save a component
  POST /api/component/reset/{id}   reset to the original
  POST /api/component              create a component
  GET  /api/components             list component ids
  GET  /preview/{id}               edit in the browser
  GET  /ws/edit/{id}               browser editing bridge

With --advertise the server registers itself over mDNS so 'retype scan'
can find it.`,
	Example: `  # Serve components from ./retype-data
  retype-store serve

  # SQLite backend on a custom port, advertised on the LAN
  retype-store serve --backend sqlite --data ./components.db --port 8080 --advertise

  # Link a Tailwind build into preview pages
  retype-store serve --stylesheet /static/tailwind.css --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", discovery.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&region, "region", "", "CSS selector limiting which elements browsers can select")
	serveCmd.Flags().StringVar(&stylesheet, "stylesheet", "", "Stylesheet URL linked from preview pages")
	serveCmd.Flags().BoolVar(&allowAnyOrigin, "allow-any-origin", false, "Accept bridge connections from any page origin")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the server over mDNS")
	serveCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: retype-store on <hostname>)")
	addBackendFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	backend, err := openBackend(backendKind, dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if advertise && instance == "" {
		name, _ := os.Hostname()
		instance = "retype-store on " + name
	}

	srv, err := storeserver.New(&storeserver.Config{
		Host:           host,
		Port:           port,
		LogLevel:       logLevel,
		Backend:        backend,
		BackendName:    backendKind,
		Region:         region,
		Stylesheet:     stylesheet,
		AllowAnyOrigin: allowAnyOrigin,
		Advertise:      advertise,
		Instance:       instance,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
