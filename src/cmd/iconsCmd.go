package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(iconsCmd)

	iconsCmd.Flags().String("icon-marker", "", "path fragment that marks the preferred icon folders")
}

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Copies missing technology icons and reports what still needs conversion",
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "icon-marker")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("mod", ModRoot).Str("vanilla", VanillaRoot).Msg("STNH Tech Tree icons running")

		p, err := runPhases(pipeline.PhaseIconMap, pipeline.PhaseIcons)
		if err != nil {
			return err
		}

		for _, w := range p.Log().Document().Warnings {
			log.Warn().Msg(w)
		}
		log.Info().Msg("STNH Tech Tree icons finished")
		return nil
	},
}
