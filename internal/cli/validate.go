package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate and compile the watch file without writing output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cat, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WATCH\tACTIONS\tFINGERPRINT")
			for _, id := range cat.IDs() {
				e := cat.Entry(id)
				fmt.Fprintf(tw, "%s\t%d\t%s\n", id, len(e.Source.ActionIDs()), e.Fingerprint[:12])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d watch(es) valid\n", cat.Len())
			return nil
		},
	}
}
