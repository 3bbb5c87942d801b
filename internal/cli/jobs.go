package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/jobs"
	"github.com/logocruncher/logo-cruncher/internal/models"
	"github.com/logocruncher/logo-cruncher/internal/payload"
	"github.com/logocruncher/logo-cruncher/internal/progress"
	"github.com/logocruncher/logo-cruncher/internal/reconcile"
)

// newJobsCmd creates the 'jobs' command group.
func newJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Job operations (preview, submit, from-dir)",
		Long:  `Commands for turning payloads into logo jobs.`,
	}

	jobsCmd.AddCommand(newJobsPreviewCmd())
	jobsCmd.AddCommand(newJobsSubmitCmd())
	jobsCmd.AddCommand(newJobsFromDirCmd())

	return jobsCmd
}

// newJobsPreviewCmd creates the 'jobs preview' command.
func newJobsPreviewCmd() *cobra.Command {
	var fromBackup bool

	cmd := &cobra.Command{
		Use:   "preview [file|-]",
		Short: "Parse a payload and show the jobs it contains",
		Long: `Parse a payload locally and print one job per attachment.
Nothing is sent to the backend.

Example:
  # Preview a payload file
  logo-cruncher jobs preview payload.json

  # Preview from stdin
  cat payload.json | logo-cruncher jobs preview -

  # Show the last job backup written by the backend
  logo-cruncher jobs preview --backup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromBackup {
				path := ""
				if len(args) == 1 {
					path = args[0]
				} else {
					cfg, _, err := loadConfig()
					if err != nil {
						return err
					}
					path = cfg.Jobs.BackupPath
				}
				logos, err := config.LoadJobsBackup(path)
				if err != nil {
					return err
				}
				printJobs(cmd.OutOrStdout(), logos)
				return nil
			}

			raw, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			root, err := payload.Parse(raw)
			if err != nil {
				return errors.New(reconcile.ParseStatus(err))
			}
			printJobs(cmd.OutOrStdout(), jobs.Normalize(root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromBackup, "backup", false, "Read a saved job backup instead of a payload")

	return cmd
}

// newJobsSubmitCmd creates the 'jobs submit' command.
func newJobsSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [file|-]",
		Short: "Send a payload to the backend and show the resulting jobs",
		Long: `Parse a payload, hand it to the backend's process_json command and
print the job list the backend answers with.

Example:
  logo-cruncher jobs submit payload.json
  logo-cruncher --executor process jobs submit - < payload.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd, args)
			if err != nil {
				return err
			}

			ctx := GetContext()
			engine, err := startEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := progress.Track(newReporter(), "Submitting payload", func() (*reconcile.Result, error) {
				return engine.SubmitJobs(ctx, raw)
			})
			if err != nil {
				if status := engine.State().Status(); status != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), status)
				}
				return err
			}

			GetLogger().Info().
				Str("request_id", res.RequestID).
				Int("jobs", len(res.Jobs)).
				Dur("duration", res.Duration).
				Msg("Payload submitted")
			printJobs(cmd.OutOrStdout(), res.Jobs)
			return nil
		},
	}

	return cmd
}

// newJobsFromDirCmd creates the 'jobs from-dir' command.
func newJobsFromDirCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "from-dir <dir>",
		Short: "Build jobs from a directory of numbered images",
		Long: `Build one job per image named after its job id (for example 42.png).
Jobs get a placeholder URL and are sorted by id.

Example:
  logo-cruncher jobs from-dir ./downloads
  logo-cruncher jobs from-dir ./downloads --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logos, err := jobs.FromImageDir(args[0])
			if err != nil {
				return err
			}

			if save {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				if err := config.SaveJobsBackup(cfg.Jobs.BackupPath, logos); err != nil {
					return err
				}
				GetLogger().Info().Str("path", cfg.Jobs.BackupPath).Int("jobs", len(logos)).Msg("Job backup written")
			}

			printJobs(cmd.OutOrStdout(), logos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Also write the jobs to the configured backup path")

	return cmd
}

// readPayload returns the payload text from the file named in args, or
// from stdin when args is empty or "-".
func readPayload(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	return string(data), nil
}

func printJobs(w io.Writer, logos []models.LogoJob) {
	if len(logos) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return
	}

	rows := make([][]string, 0, len(logos))
	for i, job := range logos {
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.FormatInt(job.ID, 10),
			job.URL,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "ID", "URL"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
	fmt.Fprintf(w, "%d job(s)\n", len(logos))
}
