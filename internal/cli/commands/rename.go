package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cskg-labs/cskg/internal/graph"
)

// NewRenameCommand creates the rename command.
func NewRenameCommand() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "rename OLD_ID NEW_ID",
		Short: "Rename a node, redirecting all its edges",
		Long: `Give a node a new identity. The new node is created with the given
label, every edge referencing the old node is redirected, and the old node
is removed, all in a single transaction. Fails if NEW_ID already exists or
OLD_ID does not.`,
		Example: `  cskg rename /c/en/colour /c/en/color --label color`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label == "" {
				return fmt.Errorf("%w: --label is required", graph.ErrInvalidArgument)
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			if err := cc.Engine.Merge(cmd.Context(), args[0], args[1], label); err != nil {
				return err
			}

			fmt.Fprintf(w, "Renamed %s to %s (%s)\n", args[0], args[1], label)
			printElapsed(w, start)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Display label for the new node (required)")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}
