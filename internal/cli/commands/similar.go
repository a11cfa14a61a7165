package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewSimilarCommand creates the similar command.
func NewSimilarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "similar NODE",
		Short: "Find nodes similar to a node",
		Long: `Find nodes that share a parent or a child with NODE through the same
relation type. A common parent p satisfies p->NODE and p->candidate; a common
child c satisfies NODE->c and candidate->c.`,
		Example: `  cskg similar /c/en/cat`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			similar, err := cc.Engine.SimilarNodes(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(similar))
			for _, s := range similar {
				rows = append(rows, []string{
					s.ID, s.Label,
					strings.Join(s.Kinds, ", "),
					strings.Join(s.Relations, ", "),
				})
			}
			if err := renderRows(w, cc.Cfg.OutputFormat,
				[]string{"node", "label", "similarity", "relations"}, rows); err != nil {
				return err
			}

			printElapsed(w, start)
			return nil
		},
	}
}
