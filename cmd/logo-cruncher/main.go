// Logo Cruncher - turns pasted job payloads into logo jobs and hands them
// to a processing backend.
package main

import (
	"os"

	"github.com/logocruncher/logo-cruncher/internal/cli"
	"github.com/logocruncher/logo-cruncher/internal/version"
)

func main() {
	// internal/version is the single source of truth; ldflags set it.
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
