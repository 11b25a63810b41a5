package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every watch source document to a directory",
		Long: `Render every watch in the config file and write each one to
<out>/<watch-id>.<ext>. Documents are rendered concurrently using
render.export_workers workers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cat, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return WrapExitError(ExitCommandError, "failed to create output directory", err)
			}

			ct := rootOpts.contentType
			r := render.New(cat, loader.Config().Render.ExportWorkers, rootOpts.log)
			n, err := r.Export(cmd.Context(), ct, func(id string, data []byte) error {
				path := filepath.Join(outDir, id+ct.Extension())
				rootOpts.log.Debug("writing watch", "watch", id, "path", path)
				return os.WriteFile(path, data, 0o644)
			})
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("export stopped after %d watch(es)", n), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d watch(es) to %s\n", n, outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "watches", "output directory")
	return cmd
}
