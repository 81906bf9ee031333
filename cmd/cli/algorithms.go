package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/spf13/cobra"
)

func newAlgorithmsCmd() *cobra.Command {
	var residents int

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the available allocation algorithms",
		Long: `List every allocation algorithm with its description, trade-offs and an advisory
runtime estimate for the given number of residents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if residents < 0 {
				return fmt.Errorf("residents must not be negative: %v", residents)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tNAME\tRECOMMENDED\tESTIMATED TIME (%d RESIDENTS)\tDESCRIPTION\tADVANTAGES\tDISADVANTAGES\n", residents)
			for _, metadata := range allocation.Algorithms() {
				recommended := ""
				if metadata.Recommended {
					recommended = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					metadata.Id,
					metadata.Name,
					recommended,
					metadata.EstimatedTime(residents),
					metadata.Description,
					metadata.Advantages,
					metadata.Disadvantages,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&residents, "residents", 1000, "Number of residents the runtime estimate is given for")
	return cmd
}
