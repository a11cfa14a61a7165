package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cskg-labs/cskg/internal/loader"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Bulk-load a TSV assertion dump",
		Long: `Import a ConceptNet-style tab-separated dump into the graph. The first
row is treated as a header. Malformed rows are skipped and counted. Reloading
the same dump is idempotent: existing edge ids are left untouched and node
labels keep the shorter variant.`,
		Example: `  cskg load cskg.tsv
  cskg load cskg.tsv --batch-size 5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()

			l := loader.New(cc.Store, cc.Logger, loader.WithBatchSize(batchSize))
			summary, err := l.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "Loaded %d edges from %d rows (%d skipped) in %s\n",
				summary.Edges, summary.Rows, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
			fmt.Fprintf(w, "Run id: %s\n", summary.RunID)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", loader.DefaultBatchSize, "Rows per upsert batch")

	return cmd
}
