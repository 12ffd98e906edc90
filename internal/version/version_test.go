package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	tests := []struct {
		name        string
		info        *debug.BuildInfo
		wantVersion string
		wantCommit  string
	}{
		{
			name: "tagged module",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			},
			wantVersion: "v1.2.0",
			wantCommit:  "0123456",
		},
		{
			name: "dirty checkout",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = "", ""
			fromBuildInfo(tt.info)
			if Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", Version, tt.wantVersion)
			}
			if Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", Commit, tt.wantCommit)
			}
		})
	}
}

func TestLdflagsWin(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "v9.9.9", "feed"
	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}})
	if Version != "v9.9.9" || Commit != "feed" {
		t.Errorf("build info overrode ldflags: %s %s", Version, Commit)
	}
	if got := Full(); got != "v9.9.9 (commit: feed)" {
		t.Errorf("Full() = %q", got)
	}
	if got := UserAgent(); got != "retype/9.9.9" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	if Version == "" || Commit == "" {
		t.Errorf("init left empty values: %q %q", Version, Commit)
	}
	if !strings.HasPrefix(UserAgent(), "retype/") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
