package main

import (
	"encoding/json"
	"fmt"

	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/spf13/cobra"
)

func newPreviewCmd(s *settings) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Size an allocation without running it",
		Long: `Print resident and bed counts, the number of residents that can be placed at
most under the hard rules, and a runtime estimate for every algorithm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := s.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			input, err := model.InputFromJsonWithDefaults(file, cfg.Allocation)
			if err != nil {
				return fmt.Errorf("cannot parse input file: %w", err)
			}

			preview, err := allocation.Preview(input, compatibility.NewStandardOracle())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(preview)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the input file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
