package cli

import (
	"github.com/spf13/cobra"

	"github.com/logocruncher/logo-cruncher/internal/backend"
	"github.com/logocruncher/logo-cruncher/internal/constants"
)

// newBackendCmd creates the 'backend' command.
func newBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend <command>",
		Short: "Serve one backend command over stdin/stdout",
		Long: `Run one command of the built-in backend. The JSON arguments are read
from stdin and a single response envelope is written to stdout:

  {"result": ..., "error": "...", "events": [{"name": "...", "payload": ...}]}

This lets the process executor point at this same binary:

  [executor]
  mode = "process"
  program = "/usr/local/bin/logo-cruncher"
  args = ["backend"]

Commands: ` + constants.CommandProcessJSON + `, ` + constants.CommandGreet + `, ` +
			constants.CommandLogoList + `, ` + constants.CommandGetFileList,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			// A command error is written into the envelope and also
			// returned, so the exit status is non-zero.
			local := backend.NewLocal(backend.OptionsFromConfig(cfg), GetLogger())
			return local.Serve(GetContext(), args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	return cmd
}
