package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shepherdjerred/conductor/internal/pipeline"
	"github.com/shepherdjerred/conductor/pkg/clustersync"
	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/notifier"
	"github.com/shepherdjerred/conductor/pkg/process"
	"github.com/shepherdjerred/conductor/pkg/registry"
	"github.com/shepherdjerred/conductor/pkg/vcshost"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full monorepo pipeline",
		Long: `Runs every configured independent check alongside the critical build
path (type generation, workspace install, CI, full build, dead-code scan)
and reports an aggregate verdict once everything has settled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			mgr := process.NewManager(log)
			mgr.RegisterShutdownHandler(cancel)
			mgr.Start(ctx)
			defer mgr.Stop(cancel)

			printInfo("Starting pipeline run")
			summary, err := RunPipeline(ctx, cfg, log)
			fmt.Println(summary)
			if err != nil {
				printError("Pipeline failed")
				return err
			}
			printSuccess("Pipeline passed")
			return nil
		},
	}
}

// RunPipeline executes one pipeline run against an already-loaded config.
// It always returns the full report; on a blocking failure the error embeds
// the same report.
func RunPipeline(ctx context.Context, cfg *config.PipelineConfig, log logger.Logger) (string, error) {
	deps := buildDependencies(cfg, log)
	return pipeline.NewScheduler(cfg, deps, log).Run(ctx)
}

// buildDependencies wires the real collaborators for a run
func buildDependencies(cfg *config.PipelineConfig, log logger.Logger) interfaces.Dependencies {
	exec := executor.New(log, executor.WithWorkingDir(projectRoot))

	notifyEnabled := cfg.Notifications != nil && cfg.Notifications.Enabled
	deps := interfaces.Dependencies{
		Executor: exec,
		VCS:      vcshost.New(exec, cfg.Repo, log),
		Cluster:  clustersync.New(exec, clusterApp(), log),
		Notifier: notifier.New(notifier.Config{Enabled: notifyEnabled}, log),
	}

	if cfg.Registry != nil {
		deps.Registry = registry.New(log, registry.Credentials{
			Host:     cfg.Registry.Host,
			Username: viper.GetString("registry_username"),
			Password: viper.GetString("registry_password"),
		})
	}

	return deps
}
