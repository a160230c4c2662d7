package config

// Build metadata injected at compile time:
//
//	go build -ldflags "-X routecast/internal/config.version=1.2.3 \
//	    -X routecast/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X routecast/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Local builds keep the placeholder defaults.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo snapshots the linker-injected variables into a BuildInfo.
// LoadConfig calls it once when populating Config.Build.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
