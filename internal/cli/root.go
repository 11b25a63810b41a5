package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/watchsource/internal/catalog"
	"github.com/gyaneshwarpardhi/watchsource/internal/component"
	"github.com/gyaneshwarpardhi/watchsource/internal/config"
	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // json | pretty | yaml | canonical
	Verbose    bool

	contentType doc.ContentType
	log         *slog.Logger
}

// NewRootCommand creates the root command for watchctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "watchctl",
		Short: "Render watch source documents",
		Long: `watchctl compiles a YAML watch file into watch source documents.

It renders single watches, exports the whole catalog, validates the file
and serves the documents over HTTP with hot reload.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ct, err := doc.ParseContentType(opts.Format)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --format", err)
			}
			opts.contentType = ct
			opts.log = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", envOr("WATCHCTL_CONFIG", "configs/watches.yaml"), "path to the watch YAML file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", envOr("WATCHCTL_FORMAT", "json"), fmt.Sprintf("output format %v", doc.ContentTypeNames()))
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadCatalog reads, validates and compiles the watch file.
func loadCatalog(opts *RootOptions) (*config.Loader, *catalog.Catalog, error) {
	loader, err := config.NewLoader(opts.ConfigPath, opts.log)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			return nil, nil, WrapExitError(ExitFailure, "invalid config", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cat, err := catalog.Build(loader.Config(), component.DefaultRegistry())
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to compile watches", err)
	}
	opts.log.Debug("catalog built", "path", opts.ConfigPath, "watches", cat.Len())
	return loader, cat, nil
}
