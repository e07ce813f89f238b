package cmd

import (
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global flags
	configFile   string
	repositories []string
	debug        bool
	noColor      bool

	// cfg is the loaded configuration, set by loadConfig
	cfg *config.Config
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./.paludis/config.json or $HOME/.paludis/config.json)")
	rootCmd.PersistentFlags().StringSliceVarP(&repositories, "repository", "r", nil, "Repository file to load, in order (overrides configured repositories)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("trace", false, "Enable debug output with caller information")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cave",
	Short: "A dependency resolver for Paludis style package repositories",
	Long: `cave resolves package targets against a set of repositories, deciding
what to install, keep, remove or break and in which order.

Repositories are YAML files describing package IDs, their dependencies,
masks and named sets. One of them may be marked as installed, describing
what is currently on the system.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.BindPFlags(cmd.Flags())
		return loadConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// initConfig sets up logging and color output from flags
func initConfig() {
	if viper.GetBool("debug") || viper.GetBool("trace") {
		log.SetLevel(log.DebugLevel)
		if viper.GetBool("trace") {
			log.SetReportCaller(true)
		}
	}

	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

// loadConfig reads the configuration file, the environment and the
// --repository flag, in increasing order of precedence
func loadConfig() error {
	var err error
	if configFile != "" {
		log.Debugf("Using config file: %s", configFile)
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(repositories) > 0 {
		cfg.Repositories = repositories
	}
	return nil
}
