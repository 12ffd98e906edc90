package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/storeclient"
	"github.com/muurk/retype/internal/ui"
)

var importStore string

var importCmd = &cobra.Command{
	Use:   "import <id> <file>",
	Short: "Create a component from a markup file",
	Long: `Create a component whose current and original code are the file's
contents. The original is written once; 'reset' restores it later.

By default the component is written straight into the local backend. With
--store it is created through a running server instead.`,
	Example: `  # Import into ./retype-data
  retype-store import hero ./hero.html

  # Import into a SQLite database
  retype-store import hero ./hero.html --backend sqlite --data ./components.db

  # Import through a running server
  retype-store import hero ./hero.html --store http://studio.local:7070`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importStore, "store", "", "Store server URL (skips the local backend)")
	addBackendFlags(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	where, err := importComponent(ctx, id, string(data))
	p := ui.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		p.PrintError("Import failed", err, []string{
			"Component ids may contain letters, digits, '-' and '_'",
			"An id can only be imported once; use the editor to change it",
		})
		return err
	}
	p.PrintSuccess("Component imported", map[string]string{
		"ID":    id,
		"Bytes": fmt.Sprintf("%d", len(data)),
		"Store": where,
	})
	return nil
}

func importComponent(ctx context.Context, id, code string) (string, error) {
	if importStore != "" {
		c := storeclient.New(importStore)
		if _, err := c.Create(ctx, id, code); err != nil {
			return "", err
		}
		return importStore, nil
	}

	backend, err := openBackend(backendKind, dataPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = backend.Close() }()
	if _, err := backend.Create(ctx, id, code); err != nil {
		return "", err
	}
	return backendKind, nil
}
