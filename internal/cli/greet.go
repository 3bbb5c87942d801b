package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/core"
	"github.com/logocruncher/logo-cruncher/internal/progress"
)

// newGreetCmd creates the 'greet' command.
func newGreetCmd() *cobra.Command {
	var (
		payloadFile string
		fromBackup  bool
	)

	cmd := &cobra.Command{
		Use:   "greet",
		Short: "Send the current job summary to the backend's greet command",
		Long: `Send a summary of the current jobs to the backend and print its reply.
The jobs come from a payload (--payload) or the saved job backup (--backup);
with neither the summary is empty.

Example:
  logo-cruncher greet --payload payload.json
  logo-cruncher greet --backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			completed := make(chan string, 1)
			ctx := GetContext()
			engine, err := startEngine(ctx, func(e *core.Engine) {
				e.OnCompletion(func(payload string) {
					select {
					case completed <- payload:
					default:
					}
				})
			})
			if err != nil {
				return err
			}
			defer engine.Close()

			switch {
			case payloadFile != "":
				raw, err := readPayload(cmd, []string{payloadFile})
				if err != nil {
					return err
				}
				if _, err := engine.SubmitJobs(ctx, raw); err != nil {
					return err
				}
			case fromBackup:
				logos, err := config.LoadJobsBackup(engine.GetConfig().Jobs.BackupPath)
				if err != nil {
					return err
				}
				engine.State().SetJobs(logos)
			}

			reply, err := progress.Track(newReporter(), "Waiting for greeting", func() (string, error) {
				return engine.Greet(ctx)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)

			waitForCompletion(cmd, engine, completed)
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadFile, "payload", "", "Submit this payload file (or - for stdin) before greeting")
	cmd.Flags().BoolVar(&fromBackup, "backup", false, "Greet with the jobs from the saved job backup")
	cmd.MarkFlagsMutuallyExclusive("payload", "backup")

	return cmd
}

// newLogoListCmd creates the 'logo-list' command.
func newLogoListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logo-list <dir>",
		Short: "Send a directory hint to the backend's logo_list command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			engine, err := startEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			reply, err := engine.LogoList(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	return cmd
}

// waitForCompletion prints the completion notification if it arrives
// within constants.CompletionWait.
func waitForCompletion(cmd *cobra.Command, engine *core.Engine, completed <-chan string) {
	timer := time.NewTimer(constants.CompletionWait)
	defer timer.Stop()

	select {
	case payload := <-completed:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", engine.Gateway().CompletionEvent(), payload)
	case <-timer.C:
		GetLogger().Debug().Msg("No completion event received")
	case <-GetContext().Done():
	}
}
