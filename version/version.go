package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info describes the running build of restproxy.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

var (
	readOnce  sync.Once
	buildInfo *debug.BuildInfo
)

func readBuildInfo() *debug.BuildInfo {
	readOnce.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			buildInfo = bi
		}
	})
	return buildInfo
}

// Get returns the build information, filling gaps from the embedded Go build
// info.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit}
	if bi := readBuildInfo(); bi != nil {
		info = fromBuildInfo(info, bi)
	}
	return info
}

func fromBuildInfo(info Info, bi *debug.BuildInfo) Info {
	info.GoVersion = bi.GoVersion
	for _, dep := range bi.Deps {
		if dep.Path == modulePath && info.Version == "dev" && dep.Version != "" && dep.Version != "(devel)" {
			info.Version = strings.TrimPrefix(dep.Version, "v")
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

const modulePath = "github.com/kbukum/restproxy"

// Short returns "version", "version-commit" or "version-commit-dirty".
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	if i.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", i.Version, i.GitCommit)
	}
	return fmt.Sprintf("%s-%s", i.Version, i.GitCommit)
}

// UserAgent is the default User-Agent sent by restproxy transports.
func UserAgent() string {
	info := Get()
	if info.GoVersion == "" {
		return "restproxy/" + info.Short()
	}
	return fmt.Sprintf("restproxy/%s (%s)", info.Short(), info.GoVersion)
}
