package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(techsCmd)

	techsCmd.Flags().String("tech-pattern", pipeline.DefaultTechPattern, "glob selecting technology files")
}

var techsCmd = &cobra.Command{
	Use:   "techs",
	Short: "Generates the technology, faction and unlock type files",
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "tech-pattern")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("mod", ModRoot).Msg("STNH Tech Tree techs running")

		p, err := runPhases(pipeline.PhaseCaching, pipeline.PhaseIconMap, pipeline.PhaseGeneration)
		if err != nil {
			return err
		}

		log.Info().Int("technologies", len(p.Records())).Msg("STNH Tech Tree techs finished")
		return nil
	},
}
