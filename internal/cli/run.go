package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/logocruncher/logo-cruncher/internal/classify"
	"github.com/logocruncher/logo-cruncher/internal/reconcile"
)

// newRunCmd creates the 'run' command.
func newRunCmd() *cobra.Command {
	var imagesOnly bool

	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Submit a payload and list the working directory at the same time",
		Long: `Run both flows side by side: submit the payload to process_json and
list the backend's working directory. Each flow reports its own result;
one failing does not stop the other.

Example:
  logo-cruncher --dir ./downloads run payload.json`,
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

			var (
				submitted *reconcile.Result
				files     classify.Result
				listErr   error
			)

			reporter := newReporter()
			reporter.Start("Submitting payload and listing files")

			var g errgroup.Group
			g.Go(func() error {
				res, err := engine.SubmitJobs(ctx, raw)
				if err != nil {
					return err
				}
				submitted = res
				return nil
			})
			g.Go(func() error {
				files, listErr = engine.LoadFiles(ctx)
				return nil
			})
			submitErr := g.Wait()
			reporter.Finish()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Jobs:")
			if submitErr != nil {
				fmt.Fprintln(out, engine.State().Status())
			} else {
				printJobs(out, submitted.Jobs)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Files:")
			if listErr != nil {
				fmt.Fprintln(out, listErr.Error())
			} else {
				printFiles(out, files, imagesOnly)
			}

			if submitErr != nil {
				return submitErr
			}
			return listErr
		},
	}

	cmd.Flags().BoolVar(&imagesOnly, "images", false, "Only show image files")

	return cmd
}
