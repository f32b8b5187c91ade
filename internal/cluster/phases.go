// Package cluster implements the homelab deployment sub-pipeline: a
// validation phase that runs every check concurrently, and a publish phase
// that only runs in production after validation has passed.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/runner"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// Options configures a cluster deployment run
type Options struct {
	Environment types.Environment
	// VersionOnly converts every artifact-dependent check into a skip: a
	// cheap metadata bump that never invokes the underlying executor.
	VersionOnly bool
	Version     string
	ChartDir    string
	// ChartRepo is the registry repository for the packaged chart, without a tag
	ChartRepo string
	SyncToken string
}

// Runner executes the validation and publish phases
type Runner struct {
	executor executor.TaskExecutor
	registry interfaces.RegistryPublisher
	cluster  interfaces.ClusterSyncer
	options  Options
	logger   logger.Logger
}

// NewRunner creates a phase runner
func NewRunner(deps interfaces.Dependencies, opts Options, log logger.Logger) *Runner {
	return &Runner{
		executor: deps.Executor,
		registry: deps.Registry,
		cluster:  deps.Cluster,
		options:  opts,
		logger:   log,
	}
}

// check describes one validation step. Artifact-dependent checks are the
// ones version-only mode skips.
type check struct {
	name             string
	command          []string
	requiresArtifact bool
}

func (r *Runner) validationChecks() []check {
	return []check{
		{name: "regex tests", command: []string{"bun", "run", "test:regex"}},
		{name: "chart packaging", command: []string{"helm", "package", r.options.ChartDir}, requiresArtifact: true},
		{name: "manifest typecheck", command: []string{"bun", "run", "typecheck:manifests"}, requiresArtifact: true},
		{name: "terraform plan", command: []string{"terraform", "plan", "-input=false"}, requiresArtifact: true},
		{name: "image build", command: []string{"docker", "build", r.options.ChartDir}, requiresArtifact: true},
	}
}

// RunValidationPhase runs every check concurrently and returns one
// StepResult per check. Version-only mode short-circuits artifact-dependent
// checks without touching the executor.
func (r *Runner) RunValidationPhase(ctx context.Context) []types.StepResult {
	checks := r.validationChecks()

	ops := make([]types.NamedOperation[types.StepResult], 0, len(checks))
	for _, c := range checks {
		c := c
		ops = append(ops, types.NamedOperation[types.StepResult]{
			Name: c.name,
			Run: func(ctx context.Context) (types.StepResult, error) {
				if r.options.VersionOnly && c.requiresArtifact {
					return types.Skipped(fmt.Sprintf("%s (version-only)", c.name)), nil
				}
				result, err := r.executor.Run(ctx, c.command[0], c.command[1:]...)
				if err != nil {
					return types.Failed(fmt.Sprintf("%s: %v", c.name, err)), nil
				}
				return types.PassedWithPayload(c.name, result.Output()), nil
			},
		})
	}

	results := runner.RunAll(ctx, r.logger, ops)

	steps := make([]types.StepResult, 0, len(results))
	for _, res := range results {
		if !res.Success {
			// Only a panic reaches this branch; command failures are
			// already folded into the StepResult above.
			steps = append(steps, types.Failed(fmt.Sprintf("%s: %v", res.Name, res.Err)))
			continue
		}
		steps = append(steps, res.Value)
	}
	return steps
}

// RunPublishPhase pushes the packaged chart and triggers the cluster sync.
// It runs only in production and only when validation passed; otherwise
// every result is a skip. The cluster sync additionally requires the chart
// publish to have succeeded.
func (r *Runner) RunPublishPhase(ctx context.Context, validation []types.StepResult) []types.StepResult {
	if r.options.Environment != types.EnvironmentProduction {
		return []types.StepResult{
			types.Skipped(fmt.Sprintf("chart publish (environment is %s)", r.options.Environment)),
			types.Skipped(fmt.Sprintf("cluster sync (environment is %s)", r.options.Environment)),
		}
	}
	if hasBlockingFailure(validation) {
		return []types.StepResult{
			types.Skipped("chart publish (validation failed)"),
			types.Skipped("cluster sync (validation failed)"),
		}
	}

	publish := r.publishChart(ctx)

	var sync types.StepResult
	if publish.Status == types.StepPassed {
		sync = r.syncCluster(ctx)
	} else {
		sync = types.Skipped("cluster sync (chart publish did not pass)")
	}

	return []types.StepResult{publish, sync}
}

// publishChart pushes the chart under its version tag and "latest"
// concurrently, folding both pushes into one StepResult that passes only
// when both tag pushes passed.
func (r *Runner) publishChart(ctx context.Context) types.StepResult {
	tags := []string{r.options.Version, "latest"}

	ops := make([]types.NamedOperation[string], 0, len(tags))
	for _, tag := range tags {
		tag := tag
		ops = append(ops, types.NamedOperation[string]{
			Name: fmt.Sprintf("chart push %s", tag),
			Run: func(ctx context.Context) (string, error) {
				return r.registry.Publish(ctx, r.options.ChartDir, fmt.Sprintf("%s:%s", r.options.ChartRepo, tag))
			},
		})
	}

	results := runner.RunAll(ctx, r.logger, ops)
	if failed := runner.Failures(results); len(failed) > 0 {
		messages := make([]string, 0, len(failed))
		for _, f := range failed {
			messages = append(messages, fmt.Sprintf("%s: %v", f.Name, f.Err))
		}
		return types.Failed(fmt.Sprintf("chart publish: %s", strings.Join(messages, "; ")))
	}
	return types.Passed(fmt.Sprintf("chart publish (%s, latest)", r.options.Version))
}

func (r *Runner) syncCluster(ctx context.Context) types.StepResult {
	if r.cluster == nil {
		return types.Failed("cluster sync: no syncer configured")
	}
	result, err := r.cluster.Sync(ctx, r.options.SyncToken)
	if err != nil {
		return types.Failed(fmt.Sprintf("cluster sync: %v", err))
	}
	return result
}

func hasBlockingFailure(results []types.StepResult) bool {
	for _, r := range results {
		if r.Status == types.StepFailed {
			return true
		}
	}
	return false
}

// CheckForFailures inspects every phase result and returns a single error
// carrying the full concatenated summary when any blocking step failed.
// Skipped steps never count as failures.
func CheckForFailures(phases ...[]types.StepResult) error {
	var lines []string
	failed := false

	for _, phase := range phases {
		for _, step := range phase {
			lines = append(lines, step.String())
			if step.Status == types.StepFailed {
				failed = true
			}
		}
	}

	if !failed {
		return nil
	}
	return errors.New("cluster deployment failed:\n" + strings.Join(lines, "\n"))
}

// Summarize renders every phase result as a report block
func Summarize(phases ...[]types.StepResult) string {
	var lines []string
	for _, phase := range phases {
		for _, step := range phase {
			lines = append(lines, step.String())
		}
	}
	return strings.Join(lines, "\n")
}
