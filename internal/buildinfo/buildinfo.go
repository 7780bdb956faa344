// Package buildinfo exposes version data stamped in at link time.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/stockflow/internal/buildinfo.Version=..."
var (
	Version    = "dev"
	BuildTime  string
	CommitHash string
)

var startedAt = time.Now().UTC()

// Info is the build and uptime summary reported by /health
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit,omitempty"`
	BuildTime  string `json:"buildTime,omitempty"`
	StartedAt  string `json:"startedAt"`
	Uptime     string `json:"uptime"`
}

// Current returns the build info of the running binary
func Current() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		StartedAt:  startedAt.Format(time.RFC3339),
		Uptime:     time.Since(startedAt).Round(time.Second).String(),
	}
}
