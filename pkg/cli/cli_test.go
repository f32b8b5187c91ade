package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/shepherdjerred/conductor/internal/cluster"
	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/mocks"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func TestClusterOptionsFromConfig(t *testing.T) {
	cfg := &config.PipelineConfig{
		Version:     "1.0",
		Repo:        "shepherdjerred/monorepo",
		Environment: types.EnvironmentProduction,
		Registry: &config.RegistryConfig{
			Host:       "ghcr.io",
			Repository: "shepherdjerred/homelab",
		},
	}

	opts := clusterOptions(cfg, "1.4.2", false)

	if opts.ChartRepo != "ghcr.io/shepherdjerred/homelab" {
		t.Errorf("chart repo = %q", opts.ChartRepo)
	}
	if opts.Environment != types.EnvironmentProduction {
		t.Errorf("environment = %q", opts.Environment)
	}
	if opts.ChartDir != defaultChartDir {
		t.Errorf("chart dir = %q", opts.ChartDir)
	}
}

func TestRunClusterPhasesReportsEveryStep(t *testing.T) {
	deps := interfaces.Dependencies{
		Executor: mocks.NewMockExecutor(),
		Registry: mocks.NewMockRegistryPublisher(),
		Cluster:  mocks.NewMockClusterSyncer(),
	}
	opts := cluster.Options{
		Environment: types.EnvironmentDevelopment,
		Version:     "1.4.2",
		ChartDir:    defaultChartDir,
	}

	summary, err := runClusterPhases(context.Background(), deps, opts, logger.CreateLoggerWithOutput("", "debug", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Validation plus the two skipped publish steps.
	if got := len(strings.Split(summary, "\n")); got != 7 {
		t.Errorf("expected 7 report lines, got %d:\n%s", got, summary)
	}
}

func TestDeployTasksCarryVersionKeys(t *testing.T) {
	cfg := &config.PipelineConfig{
		Deploys: []config.DeployConfig{
			{Name: "Webring docs", Command: []string{"deploy-webring"}, VersionKey: "ghcr.io/shepherdjerred/webring-docs"},
			{Name: "Birmel site", Command: []string{"deploy-birmel"}},
		},
	}
	exec := mocks.NewMockExecutor()

	tasks := deployTasks(cfg, exec)

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].VersionKey != "ghcr.io/shepherdjerred/webring-docs" || tasks[1].VersionKey != "" {
		t.Error("version keys not carried through")
	}

	if _, err := tasks[1].Deploy(context.Background()); err != nil {
		t.Fatalf("unexpected deploy error: %v", err)
	}
	if exec.CallCount("deploy-birmel") != 1 {
		t.Error("deploy should invoke its configured command")
	}
}

func TestEncodeVersionsIsSortedAndStable(t *testing.T) {
	got := encodeVersions(types.AppVersions{
		"ghcr.io/shepherdjerred/webring-docs": "1.4.2",
		"ghcr.io/shepherdjerred/birmel":       "1.4.2",
	})
	want := "ghcr.io/shepherdjerred/birmel=1.4.2,ghcr.io/shepherdjerred/webring-docs=1.4.2"
	if got != want {
		t.Errorf("encodeVersions = %q, want %q", got, want)
	}

	if encodeVersions(types.AppVersions{}) != "" {
		t.Error("empty map should encode to an empty string")
	}
}
