package main

import (
	"mareo-monitor/cmd"
	"mareo-monitor/internal/app"
)

// Build metadata - injected at build time
var (
	BuildDate    = "unknown"
	BuildCommit  = "unknown"
	BuildVersion = "dev"
)

func main() {
	cmd.Execute(app.BuildInfo{
		Version: BuildVersion,
		Commit:  BuildCommit,
		Date:    BuildDate,
	})
}
