// Package cli provides the command-line interface for Conductor
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/logger"
)

var (
	cfgFile     string
	projectRoot string
	verbosity   string
	version     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "The monorepo pipeline that keeps every deploy on the rails",
	Long: `🚂 Conductor - Build, validate, and release a monorepo in one run

Conductor drives the whole pipeline: independent checks overlap with the
critical build path, deploys retry only on known-transient failures, and
version metadata is committed back only when every step came home clean.`,

	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("🚂 Conductor v%s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	return rootCmd.Execute()
}

// initializeRootCommand sets up the root command and its flags.
// This replaces the init() function to make initialization explicit and testable.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: conductor.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "monorepo root directory")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newClusterCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	// Deploy credentials (registry, AWS, GitHub token) can live in a local
	// .env; a missing file is fine.
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(projectRoot)
		viper.SetConfigName("conductor")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CONDUCTOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbosity == "debug" {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// Helper functions

func printSuccess(message string) {
	fmt.Printf("🚂 %s %s\n", color.GreenString("[Conductor]"), message)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "🚂 %s %s\n", color.RedString("[Conductor]"), message)
}

func printInfo(message string) {
	fmt.Printf("🚂 %s %s\n", color.CyanString("[Conductor]"), message)
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(projectRoot, "conductor.yaml")
}

func loadConfig() (*config.PipelineConfig, error) {
	return config.NewManager().LoadConfig(getConfigPath())
}

func newLogger(cfg *config.PipelineConfig) logger.Logger {
	logFile := ""
	level := verbosity
	if cfg.Logging != nil {
		logFile = cfg.Logging.File
		if cfg.Logging.Level != "" && verbosity == "info" {
			level = cfg.Logging.Level
		}
	}
	return logger.CreateLogger(logFile, level)
}
