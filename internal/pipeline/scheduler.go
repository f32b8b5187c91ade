// Package pipeline implements the top-level tier scheduler. Independent
// checks are launched immediately and joined last, so they overlap with the
// critical-path tiers instead of serializing before or after them.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/runner"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// Scheduler drives one pipeline run across four tiers:
//
//	tier 0  independent checks from the config, fired immediately, joined last
//	tier 1  shared type generation and workspace install, both gate tier 2
//	tier 2  CI suite and full monorepo build, both results always collected
//	tier 3  dead-code scan over the built workspace, advisory only
//
// Transitions are strictly forward; retry lives at the leaf level, never here.
type Scheduler struct {
	config   *config.PipelineConfig
	executor executor.TaskExecutor
	notifier interfaces.PipelineNotifier
	logger   logger.Logger
}

// NewScheduler creates a tier scheduler
func NewScheduler(cfg *config.PipelineConfig, deps interfaces.Dependencies, log logger.Logger) *Scheduler {
	return &Scheduler{
		config:   cfg,
		executor: deps.Executor,
		notifier: deps.Notifier,
		logger:   log,
	}
}

type step struct {
	name    string
	command []string
}

func tier1Steps() []step {
	return []step{
		{name: "shared types", command: []string{"bun", "run", "generate:types"}},
		{name: "workspace install", command: []string{"bun", "install", "--frozen-lockfile"}},
	}
}

func tier2Steps() []step {
	return []step{
		{name: "ci suite", command: []string{"bun", "run", "ci"}},
		{name: "monorepo build", command: []string{"turbo", "run", "build"}},
	}
}

func tier3Step() step {
	return step{name: "dead-code scan", command: []string{"knip"}}
}

// Run executes the full pipeline and returns the run report. On a blocking
// failure the report is also embedded in the returned error, so callers can
// fail the run while still surfacing the full diagnostics.
func (s *Scheduler) Run(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	start := time.Now()

	s.logger.Info("Starting pipeline run", logger.WithField("run_id", runID))
	if s.notifier != nil {
		s.notifier.NotifyPipelineStart(runID)
	}

	// Tier 0 starts now and is joined only after tier 3.
	handles := s.spawnIndependentChecks(ctx)

	tier1 := s.runTier(ctx, tier1Steps())
	tier1OK := allPassed(tier1)

	var tier2 []types.StepResult
	tier2OK := false
	if tier1OK {
		tier2 = s.runTier(ctx, tier2Steps())
		tier2OK = allPassed(tier2)
	} else {
		tier2 = skipTier(tier2Steps(), "workspace assembly failed")
	}

	var tier3 types.StepResult
	if tier2OK {
		tier3 = s.runStep(ctx, tier3Step())
	} else {
		tier3 = types.Skipped("dead-code scan (workspace not built)")
	}

	// Join point: every independent check launched at the start is observed
	// here, whatever happened on the critical path.
	tier0 := runner.JoinAll(handles)

	report, failures, warnings := s.assemble(runID, tier0, tier1, tier2, tier3)

	duration := time.Since(start)
	if len(failures) > 0 {
		err := fmt.Errorf("pipeline run %s failed (%d blocking failure(s), %d warning(s)):\n%s",
			runID, len(failures), len(warnings), report)
		if s.notifier != nil {
			s.notifier.NotifyPipelineFailure(runID, err)
		}
		return report, err
	}

	s.logger.Success("Pipeline run completed",
		logger.WithField("run_id", runID),
		logger.WithField("duration", duration.Round(time.Millisecond)))
	if s.notifier != nil {
		s.notifier.NotifyPipelineSuccess(runID, duration)
	}
	return report, nil
}

func (s *Scheduler) spawnIndependentChecks(ctx context.Context) []*runner.Handle[types.StepResult] {
	handles := make([]*runner.Handle[types.StepResult], 0, len(s.config.Checks))
	for _, check := range s.config.Checks {
		check := check
		handles = append(handles, runner.Spawn(ctx, s.logger, types.NamedOperation[types.StepResult]{
			Name: check.Name,
			Run: func(ctx context.Context) (types.StepResult, error) {
				return s.runStep(ctx, step{name: check.Name, command: check.Command}), nil
			},
		}))
	}
	return handles
}

func (s *Scheduler) runTier(ctx context.Context, steps []step) []types.StepResult {
	ops := make([]types.NamedOperation[types.StepResult], 0, len(steps))
	for _, st := range steps {
		st := st
		ops = append(ops, types.NamedOperation[types.StepResult]{
			Name: st.name,
			Run: func(ctx context.Context) (types.StepResult, error) {
				return s.runStep(ctx, st), nil
			},
		})
	}

	results := runner.RunAll(ctx, s.logger, ops)

	out := make([]types.StepResult, 0, len(results))
	for _, res := range results {
		if !res.Success {
			out = append(out, types.Failed(fmt.Sprintf("%s: %v", res.Name, res.Err)))
			continue
		}
		out = append(out, res.Value)
	}
	return out
}

func (s *Scheduler) runStep(ctx context.Context, st step) types.StepResult {
	result, err := s.executor.Run(ctx, st.command[0], st.command[1:]...)
	if err != nil {
		return types.Failed(fmt.Sprintf("%s: %v", st.name, err))
	}
	return types.PassedWithPayload(st.name, result.Output())
}

func skipTier(steps []step, reason string) []types.StepResult {
	out := make([]types.StepResult, 0, len(steps))
	for _, st := range steps {
		out = append(out, types.Skipped(fmt.Sprintf("%s (%s)", st.name, reason)))
	}
	return out
}

func allPassed(results []types.StepResult) bool {
	for _, r := range results {
		if r.Status != types.StepPassed {
			return false
		}
	}
	return true
}

// assemble renders the run report and partitions failures into blocking
// failures and warnings. Advisory tier-0 checks and the tier-3 scan only
// ever warn.
func (s *Scheduler) assemble(runID string, tier0 []types.NamedResult[types.StepResult], tier1, tier2 []types.StepResult, tier3 types.StepResult) (string, []string, []string) {
	var failures, warnings []string

	blocking := make(map[string]bool, len(s.config.Checks))
	for _, check := range s.config.Checks {
		blocking[check.Name] = check.Blocking
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pipeline run %s\n", runID)

	b.WriteString("\nIndependent checks:\n")
	for _, res := range tier0 {
		var line types.StepResult
		if res.Success {
			line = res.Value
		} else {
			line = types.Failed(fmt.Sprintf("%s: %v", res.Name, res.Err))
		}
		fmt.Fprintf(&b, "  %s\n", line)
		if line.Status == types.StepFailed {
			if blocking[res.Name] {
				failures = append(failures, line.String())
			} else {
				warnings = append(warnings, fmt.Sprintf("advisory check failed: %s", line.Message))
			}
		}
	}

	writeTier := func(title string, steps []types.StepResult) {
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, st := range steps {
			fmt.Fprintf(&b, "  %s\n", st)
			if st.Status == types.StepFailed {
				failures = append(failures, st.String())
			}
		}
	}
	writeTier("Workspace assembly", tier1)
	writeTier("Build and CI", tier2)

	fmt.Fprintf(&b, "\nAdvisory:\n  %s\n", tier3)
	if tier3.Status == types.StepFailed {
		warnings = append(warnings, fmt.Sprintf("dead-code scan failed: %s", tier3.Message))
	}

	if len(warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return strings.TrimRight(b.String(), "\n"), failures, warnings
}
