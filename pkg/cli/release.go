package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shepherdjerred/conductor/internal/release"
	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/gitops"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/storage"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func newReleaseCmd() *cobra.Command {
	var releaseVersion string

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run the release workflow",
		Long: `Sequences the release: release PR, release creation, package publish,
application deploys (with transient-failure retry), cluster release, binary
artifacts, and the final version commit-back. Versions are only committed
when every step finished cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Release == nil {
				return fmt.Errorf("no release section in %s", getConfigPath())
			}
			log := newLogger(cfg)

			opts, err := buildReleaseOptions(cmd.Context(), cfg, releaseVersion, log)
			if err != nil {
				return err
			}

			result := release.NewCoordinator(opts, log).Run(cmd.Context())
			fmt.Println(result.Report())
			if err := result.Err(); err != nil {
				printError("Release finished with errors")
				return fmt.Errorf("release failed:\n%s\n%w", result.Report(), err)
			}
			printSuccess("Release complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&releaseVersion, "version", "", "release version (e.g. 1.4.2)")
	cmd.MarkFlagRequired("version")
	return cmd
}

func buildReleaseOptions(ctx context.Context, cfg *config.PipelineConfig, version string, log logger.Logger) (release.Options, error) {
	deps := buildDependencies(cfg, log)
	vcs := deps.VCS
	exec := deps.Executor

	opts := release.Options{
		Version: version,
		CreateReleasePR: func(ctx context.Context) (string, error) {
			title := fmt.Sprintf("chore(release): %s", version)
			return vcs.CreatePR(ctx, title, "Automated release", cfg.Release.Branch)
		},
		AttemptRelease: func(ctx context.Context) (string, error) {
			tag := "v" + version
			return vcs.CreateRelease(ctx, tag, tag, "")
		},
		PublishPackages: func(ctx context.Context) (string, error) {
			result, err := exec.Run(ctx, "bun", "run", "publish:packages")
			if err != nil {
				return "", err
			}
			return result.Output(), nil
		},
		ClusterRelease: func(ctx context.Context, versions types.AppVersions) (string, error) {
			// The cluster tooling reads the deployed versions from the
			// environment, so failed deploys are simply absent.
			clusterExec := executor.New(log,
				executor.WithWorkingDir(projectRoot),
				executor.WithEnv(map[string]string{
					"CONDUCTOR_APP_VERSIONS": encodeVersions(versions),
				}))
			clusterDeps := deps
			clusterDeps.Executor = clusterExec
			return runClusterPhases(ctx, clusterDeps, clusterOptions(cfg, version, cfg.VersionOnly), log)
		},
		BuildBinary: func(ctx context.Context, tag string) (string, error) {
			result, err := exec.Run(ctx, "bun", "run", "build:binary", tag)
			if err != nil {
				return "", err
			}
			asset := filepath.Join("dist", tag+".tar.gz")
			if _, err := vcs.UploadAsset(ctx, tag, asset); err != nil {
				return "", err
			}
			return result.Output(), nil
		},
		BinaryProjects: cfg.Release.BinaryProjects,
		DeployTasks:    deployTasks(cfg, exec),
		Docs: release.DocsSite{
			Dir:             cfg.Release.DocsDir,
			Bucket:          cfg.Release.DocsBucket,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}

	if opts.Docs.Configured() {
		syncer, err := storage.New(ctx, log)
		if err != nil {
			return release.Options{}, err
		}
		opts.Storage = syncer
	}

	committerOpts := []gitops.Option{}
	if token := viper.GetString("github_token"); token != "" {
		committerOpts = append(committerOpts, gitops.WithPush(token))
	}
	opts.Committer = gitops.New(projectRoot, cfg.Release.VersionsFile, log, committerOpts...)

	return opts, nil
}

// deployTasks turns the configured deploys into coordinator tasks
func deployTasks(cfg *config.PipelineConfig, exec executor.TaskExecutor) []types.DeployTask {
	tasks := make([]types.DeployTask, 0, len(cfg.Deploys))
	for _, d := range cfg.Deploys {
		d := d
		tasks = append(tasks, types.DeployTask{
			Name:       d.Name,
			VersionKey: d.VersionKey,
			Deploy: func(ctx context.Context) (string, error) {
				result, err := exec.Run(ctx, d.Command[0], d.Command[1:]...)
				if err != nil {
					return "", err
				}
				return result.Output(), nil
			},
		})
	}
	return tasks
}

// encodeVersions renders the versions map as sorted comma-joined key=value
// pairs for consumption by the cluster tooling.
func encodeVersions(versions types.AppVersions) string {
	pairs := make([]string, 0, len(versions))
	for key, v := range versions {
		pairs = append(pairs, key+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
