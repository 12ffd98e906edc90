// Package config manages the retype user configuration file.
//
// The file records known store servers, recently opened components and
// editor preferences. It lives in the OS config directory:
//   - Linux: $XDG_CONFIG_HOME/retype/config.yaml or $HOME/.config/retype/config.yaml
//   - macOS: $HOME/.config/retype/config.yaml
//   - Windows: %LOCALAPPDATA%\retype\config.yaml
//
// RETYPE_CONFIG overrides the path entirely.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry.AddStore("studio", "http://studio.local:7070")
//	registry.TouchComponent("studio", "hero-banner")
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry is loaded once with sync.Once. Saves hold a package
// mutex and write through a temp file plus rename.
package config
