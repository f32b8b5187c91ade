package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shepherdjerred/conductor/internal/cluster"
	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
)

// defaultChartDir is where the monorepo keeps its cluster chart
const defaultChartDir = "charts/homelab"

// defaultClusterApp is the GitOps application the sync targets
const defaultClusterApp = "homelab"

func clusterApp() string {
	if app := viper.GetString("cluster_app"); app != "" {
		return app
	}
	return defaultClusterApp
}

func newClusterCmd() *cobra.Command {
	var (
		clusterVersion string
		versionOnly    bool
		chartDir       string
	)

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Run the cluster deployment sub-pipeline",
		Long: `Validates the cluster deployment (tests, chart packaging, manifest
typecheck, terraform plan, image build) concurrently, then — in production
only, and only after a clean validation — publishes the chart under its
version and latest tags and triggers the GitOps sync.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			deps := buildDependencies(cfg, log)

			opts := clusterOptions(cfg, clusterVersion, versionOnly || cfg.VersionOnly)
			if chartDir != "" {
				opts.ChartDir = chartDir
			}

			summary, err := runClusterPhases(cmd.Context(), deps, opts, log)
			fmt.Println(summary)
			if err != nil {
				printError("Cluster deployment failed")
				return err
			}
			printSuccess("Cluster deployment complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&clusterVersion, "version", "", "chart version to publish")
	cmd.Flags().BoolVar(&versionOnly, "version-only", false, "bump versions without building or validating artifacts")
	cmd.Flags().StringVar(&chartDir, "chart-dir", "", "chart directory (default "+defaultChartDir+")")
	cmd.MarkFlagRequired("version")
	return cmd
}

// clusterOptions derives the sub-pipeline options from the pipeline config
func clusterOptions(cfg *config.PipelineConfig, version string, versionOnly bool) cluster.Options {
	opts := cluster.Options{
		Environment: cfg.Environment,
		VersionOnly: versionOnly,
		Version:     version,
		ChartDir:    defaultChartDir,
		SyncToken:   viper.GetString("sync_token"),
	}
	if cfg.Registry != nil {
		opts.ChartRepo = cfg.Registry.Host + "/" + cfg.Registry.Repository
	}
	return opts
}

// runClusterPhases executes validation then publish and folds every step
// into one report; the returned error carries the same report.
func runClusterPhases(ctx context.Context, deps interfaces.Dependencies, opts cluster.Options, log logger.Logger) (string, error) {
	r := cluster.NewRunner(deps, opts, log)

	validation := r.RunValidationPhase(ctx)
	publish := r.RunPublishPhase(ctx, validation)

	summary := cluster.Summarize(validation, publish)
	if err := cluster.CheckForFailures(validation, publish); err != nil {
		return summary, err
	}
	return summary, nil
}
