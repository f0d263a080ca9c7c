package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name  string
		base  Info
		bi    *debug.BuildInfo
		want  Info
		short string
	}{
		{
			name:  "dev without vcs data",
			base:  Info{Version: "dev"},
			bi:    &debug.BuildInfo{GoVersion: "go1.26.0"},
			want:  Info{Version: "dev", GoVersion: "go1.26.0"},
			short: "dev",
		},
		{
			name: "module version from dependency",
			base: Info{Version: "dev"},
			bi: &debug.BuildInfo{GoVersion: "go1.26.0", Deps: []*debug.Module{
				{Path: "github.com/other/lib", Version: "v9.9.9"},
				{Path: modulePath, Version: "v1.4.2"},
			}},
			want:  Info{Version: "1.4.2", GoVersion: "go1.26.0"},
			short: "1.4.2",
		},
		{
			name: "ldflags version wins over dependency",
			base: Info{Version: "2.0.0"},
			bi: &debug.BuildInfo{Deps: []*debug.Module{
				{Path: modulePath, Version: "v1.4.2"},
			}},
			want:  Info{Version: "2.0.0"},
			short: "2.0.0",
		},
		{
			name: "vcs revision is shortened and dirty flagged",
			base: Info{Version: "1.0.0"},
			bi: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
			}},
			want:  Info{Version: "1.0.0", GitCommit: "0123456", IsDirty: true},
			short: "1.0.0-0123456-dirty",
		},
		{
			name: "ldflags commit is kept",
			base: Info{Version: "1.0.0", GitCommit: "abc1234"},
			bi: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "fffffffffff"},
			}},
			want:  Info{Version: "1.0.0", GitCommit: "abc1234"},
			short: "1.0.0-abc1234",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fromBuildInfo(tc.base, tc.bi)
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
			if got.Short() != tc.short {
				t.Errorf("Short() = %q, want %q", got.Short(), tc.short)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "restproxy/") {
		t.Errorf("UserAgent() = %q", ua)
	}
	if !strings.Contains(ua, Get().Short()) {
		t.Errorf("UserAgent() %q should carry the short version", ua)
	}
}
