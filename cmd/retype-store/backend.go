package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/store"
)

// Backend flags, shared by serve and import.
var (
	backendKind string
	dataPath    string
)

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backendKind, "backend", "file", "Storage backend (memory, file, sqlite)")
	cmd.Flags().StringVar(&dataPath, "data", "", "Directory (file) or database path (sqlite); defaults under ./retype-data")
}

// openBackend opens the named backend. data defaults to ./retype-data for
// files and ./retype-data/components.db for sqlite.
func openBackend(kind, data string) (store.Backend, error) {
	switch kind {
	case "memory":
		return store.NewMemory(), nil

	case "file":
		if data == "" {
			data = "retype-data"
		}
		return store.NewFile(data)

	case "sqlite":
		if data == "" {
			data = filepath.Join("retype-data", "components.db")
		}
		if err := os.MkdirAll(filepath.Dir(data), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return store.OpenSQLite(data)

	default:
		return nil, fmt.Errorf("unknown backend %q (want memory, file or sqlite)", kind)
	}
}
