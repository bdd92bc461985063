package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/pipeline"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	ModRoot      string
	VanillaRoot  string
	OutputPath   string
	BalancePath  string
	TriggersPath string
	LogsPath     string

	cfgFile           string
	debugMode         bool
	humanReadableLogs bool
	precompress       bool
)

var rootCmd = &cobra.Command{
	Use:   "techtree",
	Short: "STNH Tech Tree exporter turns Star Trek: New Horizons mod files into tech tree data",
	Long: `STNH Tech Tree exporter reads the technology, content and localisation files
of the Star Trek: New Horizons mod and writes the JSON files and icons used by
the tech tree viewer.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initDebugMode)
	cobra.OnInitialize(initHumanOutput)
	cobra.OnInitialize(initPathsFromViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stt.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&humanReadableLogs, "human", false, "enable human readable mode")
	rootCmd.PersistentFlags().StringVarP(&ModRoot, "mod", "m", "", "path to the STNH mod directory or its descriptor.mod")
	rootCmd.PersistentFlags().StringVar(&VanillaRoot, "vanilla", "", "path to the Stellaris installation, searched for missing icons")
	rootCmd.PersistentFlags().StringVarP(&OutputPath, "output", "o", defaultOutputPath(), "path where the generated files are written")
	rootCmd.PersistentFlags().StringVar(&BalancePath, "balance", "", "path to the balance center export directory")
	rootCmd.PersistentFlags().StringVar(&TriggersPath, "triggers", "", "trigger rule table (YAML or JSON), defaults to the built-in table")
	rootCmd.PersistentFlags().StringVar(&LogsPath, "logs", "", "run log directory (default is <output>/logs)")
	rootCmd.PersistentFlags().BoolVar(&precompress, "precompress", false, "write brotli .br siblings of the JSON files")

	for _, name := range []string{"debug", "human", "mod", "vanilla", "output", "balance", "triggers", "logs", "precompress"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetDefault("keep-logs", pipeline.DefaultKeepLogs)
	viper.SetDefault("tech-pattern", pipeline.DefaultTechPattern)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".stt" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stt")
	}

	viper.SetEnvPrefix("STT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Info().Msgf("Using config file: %s", viper.ConfigFileUsed())
	}
}

func initDebugMode() {
	if viper.GetBool("debug") || debugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// initHumanOutput switches to console output on request or when stderr is
// a terminal.
func initHumanOutput() {
	interactive := app.Interactive()
	if viper.GetBool("human") || humanReadableLogs || interactive {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:     colorable.NewColorableStderr(),
			NoColor: !interactive,
		})
	}
}

func initPathsFromViper() {
	if v := viper.GetString("mod"); v != "" {
		ModRoot = app.SanitizeModRoot(app.ExpandPath(v))
	}
	if v := viper.GetString("vanilla"); v != "" {
		VanillaRoot = app.ExpandPath(v)
	}
	if v := viper.GetString("output"); v != "" {
		OutputPath = app.ExpandPath(v)
	}
	if v := viper.GetString("balance"); v != "" {
		BalancePath = app.ExpandPath(v)
	}
	if v := viper.GetString("triggers"); v != "" {
		TriggersPath = app.ExpandPath(v)
	}
	if v := viper.GetString("logs"); v != "" {
		LogsPath = app.ExpandPath(v)
	}
}

// pipelineConfig collects the run configuration. Options without a flag,
// such as the unlock categories, come from the config file only.
func pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.Config{
		ModRoot:      ModRoot,
		VanillaRoot:  VanillaRoot,
		OutputRoot:   OutputPath,
		BalanceDir:   BalancePath,
		TriggersPath: TriggersPath,
		LogsDir:      LogsPath,
		AssetsDir:    viper.GetString("assets"),
		IconsDir:     viper.GetString("icons"),
		WebpDir:      viper.GetString("webp"),
		TechPattern:  viper.GetString("tech-pattern"),
		IconMarker:   viper.GetString("icon-marker"),
		Precompress:  viper.GetBool("precompress") || precompress,
		KeepLogs:     viper.GetInt("keep-logs"),
	}
	if viper.IsSet("categories") {
		var cats []unlocks.Category
		if err := viper.UnmarshalKey("categories", &cats); err != nil {
			return cfg, fmt.Errorf("categories: %w", err)
		}
		cfg.Categories = cats
	}
	return cfg.WithDefaults(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultOutputPath() string {
	return app.ExpandPath(
		"./output",
	)
}
