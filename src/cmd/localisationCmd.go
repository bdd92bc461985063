package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(localisationCmd)
}

var localisationCmd = &cobra.Command{
	Use:   "localisation [key...]",
	Short: "Caches the English localisation map and prints the given keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		loc, err := localisation.Load(cfg.LocalisationDir(), cfg.LocPattern)
		if err != nil {
			return err
		}
		path, err := artifact.NewWriter(cfg.CacheDir, false).JSON(pipeline.LocalisationFile, loc.Map())
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("entries", loc.Len()).Msg("Localisation map written")

		for _, key := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, loc.Get(key, "<missing>"))
		}
		return nil
	},
}
