package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(triggersCmd)
}

var triggersCmd = &cobra.Command{
	Use:   "triggers [condition text...]",
	Short: "Writes the trigger map and resolves the required species of each argument",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}

		table, err := triggers.LoadOrDefault(cfg.TriggersPath)
		if err != nil {
			return err
		}
		path, err := artifact.NewWriter(cfg.CacheDir, false).JSON(pipeline.TriggerMapFile, table)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("rules", table.Len()).Msg("Trigger map written")

		r, err := triggers.NewResolver(table.Rules())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, text := range args {
			required, excluded := r.Resolve(text)
			fmt.Fprintf(out, "%s\n  required: %s\n  excluded: %s\n", text, strings.Join(required, ", "), strings.Join(excluded, ", "))
		}
		return nil
	},
}
