package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewRelatedCommand creates the related command.
func NewRelatedCommand() *cobra.Command {
	var (
		distance int
		antonyms bool
	)

	cmd := &cobra.Command{
		Use:   "related NODE",
		Short: "Find synonyms or antonyms at an exact distance",
		Long: `Walk synonym and antonym edges out to exactly --distance hops and
report the nodes whose shortest such path carries the requested meaning.
Antonym hops flip the meaning: an even number of them keeps it (synonym-like),
an odd number inverts it. By default synonym-like nodes are reported; use
--antonyms for the inverted set.`,
		Example: `  cskg related /c/en/happy --distance 2
  cskg related /c/en/happy --distance 3 --antonyms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			related, err := cc.Engine.DistantRelated(cmd.Context(), args[0], distance, antonyms)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(related))
			for _, r := range related {
				rows = append(rows, []string{r.ID, r.Label, strings.Join(r.PathLabels, " -> ")})
			}
			if err := renderRows(w, cc.Cfg.OutputFormat,
				[]string{"node", "label", "path"}, rows); err != nil {
				return err
			}

			printElapsed(w, start)
			return nil
		},
	}

	cmd.Flags().IntVar(&distance, "distance", 1, "Exact path length in hops")
	cmd.Flags().BoolVar(&antonyms, "antonyms", false, "Report antonym-like nodes instead of synonym-like")

	return cmd
}
