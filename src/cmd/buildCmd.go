package cmd

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errRunFailed = errors.New("update finished with errors, see the run log")

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().Int("keep-logs", pipeline.DefaultKeepLogs, "number of run logs kept uncompressed")
	buildCmd.Flags().String("tech-pattern", pipeline.DefaultTechPattern, "glob selecting technology files")
}

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"update"},
	Short:   "Runs the full update: caches, technologies, icons and the run log",
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "keep-logs", "tech-pattern")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("mod", ModRoot).Str("output", OutputPath).Msg("STNH Tech Tree build running")

		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}
		success, err := pipeline.New(cfg).Run()
		if err != nil {
			return err
		}
		if !success {
			return errRunFailed
		}

		log.Info().Msg("STNH Tech Tree build finished")
		return nil
	},
}

// runPhases runs a subset of the pipeline without saving a run log.
func runPhases(names ...string) (*pipeline.Pipeline, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	p := pipeline.New(cfg)
	success, err := p.RunPhases(names...)
	if err != nil {
		return p, err
	}
	if !success {
		return p, errRunFailed
	}
	return p, nil
}

// bindFlags binds local flags of the running command to viper keys. It is
// called from PreRun since several commands share a key.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}
