package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/logocruncher/logo-cruncher/internal/classify"
	"github.com/logocruncher/logo-cruncher/internal/progress"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File operations (list, watch)",
		Long:  `Commands for the backend's working directory.`,
	}

	filesCmd.AddCommand(newFilesListCmd())
	filesCmd.AddCommand(newFilesWatchCmd())

	return filesCmd
}

// newFilesListCmd creates the 'files list' command.
func newFilesListCmd() *cobra.Command {
	var imagesOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the backend's working directory",
		Long: `Ask the backend for its file list and mark which entries are images.

Example:
  logo-cruncher files list
  logo-cruncher --dir ./downloads files list --images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			engine, err := startEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := progress.Track(newReporter(), "Listing files", func() (classify.Result, error) {
				return engine.LoadFiles(ctx)
			})
			if err != nil {
				return err
			}

			printFiles(cmd.OutOrStdout(), res, imagesOnly)
			return nil
		},
	}

	cmd.Flags().BoolVar(&imagesOnly, "images", false, "Only show image files")

	return cmd
}

// newFilesWatchCmd creates the 'files watch' command.
func newFilesWatchCmd() *cobra.Command {
	var imagesOnly bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-list the working directory whenever it changes",
		Long: `List the working directory, then list it again every time a file is
created, written, renamed or removed. Press Ctrl+C to stop.

Example:
  logo-cruncher --dir ./downloads files watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			engine, err := startEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			dir := engine.GetConfig().Files.Directory
			return engine.WatchDirectory(ctx, dir, func(res classify.Result, err error) {
				if err != nil {
					GetLogger().Error().Err(err).Msg("File list reload failed")
					return
				}
				printFiles(out, res, imagesOnly)
			})
		},
	}

	cmd.Flags().BoolVar(&imagesOnly, "images", false, "Only show image files")

	return cmd
}

func printFiles(w io.Writer, res classify.Result, imagesOnly bool) {
	rows := make([][]string, 0, len(res.Entries))
	for _, entry := range res.Entries {
		if imagesOnly && !entry.IsImage() {
			continue
		}
		image := "no"
		if entry.IsImage() {
			image = "yes"
		}
		rows = append(rows, []string{entry.Path, image, entry.DisplayURL})
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No files found")
		return
	}

	fmt.Fprintln(w, renderTable([]string{"Path", "Image", "Display URL"}, rows, nil))
	fmt.Fprintf(w, "%d file(s), %d image(s)\n", len(res.All), len(res.Images))
}
