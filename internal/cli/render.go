package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <watch-id>",
		Short: "Print one watch source document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cat, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}
			r := render.New(cat, 1, rootOpts.log)
			out, err := r.Render(args[0], rootOpts.contentType)
			if err != nil {
				if errors.Is(err, render.ErrUnknownWatch) {
					return WrapExitError(ExitCommandError, "render failed", err)
				}
				return WrapExitError(ExitFailure, "render failed", err)
			}
			w := cmd.OutOrStdout()
			if _, err := w.Write(out); err != nil {
				return err
			}
			if len(out) > 0 && out[len(out)-1] != '\n' {
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
