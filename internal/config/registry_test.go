package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(configDir, "retype") {
		t.Errorf("GetConfigDir() = %v, should contain 'retype'", configDir)
	}
	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
		t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
	}
}

func TestGetConfigPathOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(PathEnv, want)

	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if got != want {
		t.Errorf("GetConfigPath() = %v, want %v", got, want)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Stores == nil || reg.Preferences == nil {
		t.Fatal("NewRegistry() should initialise stores and preferences")
	}
	if !reg.Preferences.AutoDiscover {
		t.Error("AutoDiscover should be true by default")
	}
	if reg.Preferences.Viewport.Width != 1280 {
		t.Errorf("Viewport.Width = %v, want 1280", reg.Preferences.Viewport.Width)
	}
}

func TestAddStoreSetsDefault(t *testing.T) {
	reg := NewRegistry()
	reg.AddStore("studio", "http://studio.local:7070/")
	reg.AddStore("lab", "http://lab:7070")

	if reg.Preferences.DefaultStore != "studio" {
		t.Errorf("DefaultStore = %q, want studio", reg.Preferences.DefaultStore)
	}
	if got := reg.GetStore("studio").URL; got != "http://studio.local:7070" {
		t.Errorf("URL = %q, trailing slash should be trimmed", got)
	}
	if names := reg.StoreNames(); len(names) != 2 || names[0] != "lab" {
		t.Errorf("StoreNames() = %v", names)
	}
}

func TestResolveStore(t *testing.T) {
	reg := NewRegistry()
	reg.AddStore("studio", "http://studio:7070")

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"", "http://studio:7070", false},
		{"studio", "http://studio:7070", false},
		{"http://other:1/", "http://other:1", false},
		{"missing", "", true},
	}
	for _, tt := range tests {
		got, err := reg.ResolveStore(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveStore(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveStore(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}

	if _, err := NewRegistry().ResolveStore(""); err == nil {
		t.Error("ResolveStore with no stores should fail")
	}
}

func TestRemoveStore(t *testing.T) {
	reg := NewRegistry()
	reg.AddStore("studio", "http://studio:7070")
	reg.AddStore("lab", "http://lab:7070")
	reg.TouchComponent("studio", "a")
	reg.TouchComponent("lab", "b")

	reg.RemoveStore("studio")
	if reg.GetStore("studio") != nil {
		t.Error("store should be removed")
	}
	if reg.Preferences.DefaultStore != "" {
		t.Errorf("DefaultStore = %q, want empty", reg.Preferences.DefaultStore)
	}
	if len(reg.Recent) != 1 || reg.Recent[0].ID != "b" {
		t.Errorf("Recent = %+v", reg.Recent)
	}
}

func TestTouchComponent(t *testing.T) {
	reg := NewRegistry()
	reg.TouchComponent("s", "a")
	reg.TouchComponent("s", "b")
	reg.TouchComponent("s", "a")

	if len(reg.Recent) != 2 || reg.Recent[0].ID != "a" || reg.Recent[1].ID != "b" {
		t.Errorf("Recent = %+v", reg.Recent)
	}

	for i := 0; i < MaxRecent+5; i++ {
		reg.TouchComponent("s", strings.Repeat("x", i+1))
	}
	if len(reg.Recent) != MaxRecent {
		t.Errorf("len(Recent) = %d, want %d", len(reg.Recent), MaxRecent)
	}
}

func TestMarkSeen(t *testing.T) {
	reg := NewRegistry()
	reg.MarkSeen("missing", "sqlite")

	reg.AddStore("studio", "http://studio:7070")
	reg.MarkSeen("studio", "sqlite")
	s := reg.GetStore("studio")
	if s.LastSeen.IsZero() || s.Backend != "sqlite" {
		t.Errorf("store = %+v", s)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.AddStore("studio", "http://studio:7070")
	reg.TouchComponent("studio", "hero")
	reg.Preferences.LogLevel = "debug"
	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}
	if info, err := os.Stat(path); err != nil {
		t.Fatal(err)
	} else if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.GetStore("studio") == nil || loaded.Preferences.LogLevel != "debug" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Recent) != 1 || loaded.Recent[0].ID != "hero" {
		t.Errorf("Recent = %+v", loaded.Recent)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"minimal", "version: 1\n", false},
		{"bad version", "version: 2\n", true},
		{"bad yaml", "version: [\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			reg, err := LoadFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (reg.Stores == nil || reg.Preferences == nil || reg.Preferences.Viewport == nil) {
				t.Error("LoadFile() should fill defaults")
			}
		})
	}

	reg, err := LoadFile(filepath.Join(dir, "absent.yaml"))
	if err != nil || reg.Version != 1 {
		t.Errorf("missing file = %+v, %v", reg, err)
	}
}

func TestLoadRegistryUsesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(PathEnv, path)

	seed := NewRegistry()
	seed.AddStore("lab", "http://lab:7070")
	if err := seed.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if reg.GetStore("lab") == nil {
		t.Error("global registry should read the override path")
	}
	again, _ := LoadRegistry()
	if again != reg {
		t.Error("LoadRegistry() should return the cached instance")
	}
}
