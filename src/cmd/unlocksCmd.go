package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(unlocksCmd)
}

var unlocksCmd = &cobra.Command{
	Use:   "unlocks [tech...]",
	Short: "Builds the reverse unlock index and describes the given technologies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ix := unlocks.NewIndexer(cfg.ModRoot, cfg.Categories)
		index := ix.Build()
		path, err := artifact.NewWriter(cfg.CacheDir, false).JSON(pipeline.ReverseUnlocksFile, index)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("technologies", len(index)).Msg("Reverse unlock index written")

		for _, tech := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", tech, unlocks.Describe(index[tech]))
		}
		return nil
	},
}
