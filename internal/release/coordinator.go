// Package release sequences the release workflow: PR, release, package
// publish, application deploys, cluster release, binary artifacts, and the
// final version commit-back. Steps run in a fixed order; each step's skip
// condition is stated explicitly instead of being inferred from errors.
package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/runner"
	"github.com/shepherdjerred/conductor/pkg/types"
	"github.com/shepherdjerred/conductor/pkg/vcshost"
)

// deployMaxRetries bounds the per-deploy retry on the transient GraphQL
// backend timeout. Non-matching errors are never retried.
const deployMaxRetries = 2

// State names the coordinator's position in the release sequence
type State string

const (
	StateInit           State = "init"
	StatePRCreated      State = "pr_created"
	StateReleaseCreated State = "release_created"
	StatePublished      State = "published"
	StateDeployed       State = "deployed"
	StateCommitted      State = "committed"
)

// transitions is the only legal successor of each state. The sequence is
// strictly linear; a skipped step still advances the machine.
var transitions = map[State]State{
	StateInit:           StatePRCreated,
	StatePRCreated:      StateReleaseCreated,
	StateReleaseCreated: StatePublished,
	StatePublished:      StateDeployed,
	StateDeployed:       StateCommitted,
}

// Result is the structured outcome of a release run. The coordinator never
// throws; the caller inspects Errors to decide final disposition.
type Result struct {
	Outputs []string
	Errors  []error
	// Versions holds the successfully deployed application versions.
	// A failed deploy's versionKey never appears here.
	Versions types.AppVersions
	// State is the machine's final position
	State State
}

// Report renders the outputs as a single newline-joined string
func (r *Result) Report() string {
	return strings.Join(r.Outputs, "\n")
}

// Err folds the collected errors into one, or nil for a clean run
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Coordinator runs the release sequence. One coordinator serves one run.
type Coordinator struct {
	opts   Options
	logger logger.Logger
	state  State
	result Result
}

// NewCoordinator creates a release coordinator
func NewCoordinator(opts Options, log logger.Logger) *Coordinator {
	return &Coordinator{
		opts:   opts,
		logger: log,
		state:  StateInit,
	}
}

// Run executes the whole sequence and returns the structured result. Every
// step is attempted (or explicitly skipped); failures are collected rather
// than aborting the sequence, except that a dirty run never commits versions.
func (c *Coordinator) Run(ctx context.Context) Result {
	c.result.Versions = types.AppVersions{}

	c.stepCreatePR(ctx)
	releaseOutput := c.stepAttemptRelease(ctx)
	releaseCreated := vcshost.ParseReleaseURL(releaseOutput) != ""

	c.stepPublishPackages(ctx, releaseCreated)
	c.stepDeployApplications(ctx)
	c.stepClusterRelease(ctx)
	c.stepBinaryArtifacts(ctx, releaseOutput)
	c.stepSyncDocs(ctx)
	c.stepCommitVersions(ctx)

	c.result.State = c.state
	return c.result
}

func (c *Coordinator) advance(to State) {
	if transitions[c.state] != to {
		// A wrong transition is a programming error in the sequence itself.
		panic(fmt.Sprintf("illegal release transition %s -> %s", c.state, to))
	}
	c.state = to
}

func (c *Coordinator) record(line string) {
	c.result.Outputs = append(c.result.Outputs, line)
}

func (c *Coordinator) recordError(step string, err error) {
	c.result.Errors = append(c.result.Errors, fmt.Errorf("%s: %w", step, err))
	c.record(fmt.Sprintf("%s failed: %v", step, err))
}

// Step 1: always attempted; its failure is recorded but never aborts the run.
func (c *Coordinator) stepCreatePR(ctx context.Context) {
	out, err := c.opts.CreateReleasePR(ctx)
	c.advance(StatePRCreated)
	if err != nil {
		c.recordError("release PR", err)
		return
	}
	c.record("release PR: " + firstLine(out))
}

// Step 2: whether a release now exists is decided from the output, not from
// the collaborator's error value.
func (c *Coordinator) stepAttemptRelease(ctx context.Context) string {
	out, err := c.opts.AttemptRelease(ctx)
	c.advance(StateReleaseCreated)
	if err != nil {
		c.recordError("release creation", err)
		return out
	}
	if url := vcshost.ParseReleaseURL(out); url != "" {
		c.record("release created: " + url)
	} else {
		c.record("no release created")
	}
	return out
}

// Step 3: runs only when step 2 actually produced a release.
func (c *Coordinator) stepPublishPackages(ctx context.Context, releaseCreated bool) {
	defer c.advance(StatePublished)

	if !releaseCreated {
		c.record("package publish skipped: no release detected")
		return
	}
	out, err := c.opts.PublishPackages(ctx)
	if err != nil {
		c.recordError("package publish", err)
		return
	}
	c.record("packages published: " + firstLine(out))
}

// Step 4: all application deploys run concurrently; each is retried only on
// the transient GraphQL signature. Successes with a versionKey contribute to
// the versions map, failures contribute an error and nothing else.
func (c *Coordinator) stepDeployApplications(ctx context.Context) {
	defer c.advance(StateDeployed)

	if len(c.opts.DeployTasks) == 0 {
		c.record("no application deploys configured")
		return
	}

	ops := make([]types.NamedOperation[string], 0, len(c.opts.DeployTasks))
	for _, task := range c.opts.DeployTasks {
		task := task
		ops = append(ops, types.NamedOperation[string]{
			Name: task.Name,
			Run: func(ctx context.Context) (string, error) {
				return runner.WithRetry(ctx, c.logger, task.Name, task.Deploy,
					deployMaxRetries, runner.IsTransientGraphQL)
			},
		})
	}

	results := runner.RunAll(ctx, c.logger, ops)

	keysByName := make(map[string]string, len(c.opts.DeployTasks))
	for _, task := range c.opts.DeployTasks {
		keysByName[task.Name] = task.VersionKey
	}

	for _, res := range results {
		if !res.Success {
			c.recordError("deploy "+res.Name, res.Err)
			continue
		}
		c.record(fmt.Sprintf("deployed %s", res.Name))
		c.result.Versions.Record(keysByName[res.Name], c.opts.Version)
	}
}

// Step 5: the cluster release only ever sees versions from successful
// deploys, so a failed deploy is excluded rather than propagated stale.
func (c *Coordinator) stepClusterRelease(ctx context.Context) {
	if c.opts.ClusterRelease == nil {
		c.record("cluster release skipped: not configured")
		return
	}
	out, err := c.opts.ClusterRelease(ctx, c.result.Versions)
	if err != nil {
		c.recordError("cluster release", err)
		return
	}
	c.record("cluster release: " + firstLine(out))
}

// Step 6: binary artifacts are built only for release tags actually present
// in step 2's output.
func (c *Coordinator) stepBinaryArtifacts(ctx context.Context, releaseOutput string) {
	tags := matchBinaryTags(releaseOutput, c.opts.BinaryProjects)
	if len(tags) == 0 {
		c.record("binary artifacts skipped: no matching release tag")
		return
	}
	for _, tag := range tags {
		out, err := c.opts.BuildBinary(ctx, tag)
		if err != nil {
			c.recordError("binary artifacts for "+tag, err)
			continue
		}
		c.record(fmt.Sprintf("binary artifacts uploaded for %s: %s", tag, firstLine(out)))
	}
}

// Docs sync runs only with a complete credential group; a half-configured
// group skips the step entirely.
func (c *Coordinator) stepSyncDocs(ctx context.Context) {
	if c.opts.Docs.Empty() {
		return
	}
	if !c.opts.Docs.Configured() || c.opts.Storage == nil {
		c.record("docs sync skipped: incomplete credentials")
		return
	}
	out, err := c.opts.Storage.Sync(ctx, c.opts.Docs.Dir, c.opts.Docs.Bucket, interfaces.SyncOptions{
		DeleteRemoved: true,
	})
	if err != nil {
		c.recordError("docs sync", err)
		return
	}
	c.record("docs sync: " + firstLine(out))
}

// Step 7: the recorded "what's deployed" state only advances when every
// prior step finished cleanly.
func (c *Coordinator) stepCommitVersions(ctx context.Context) {
	defer c.advance(StateCommitted)

	if len(c.result.Errors) > 0 {
		c.record(fmt.Sprintf("version commit-back skipped: %d error(s) in this run", len(c.result.Errors)))
		return
	}
	if c.opts.Committer == nil {
		c.record("version commit-back skipped: not configured")
		return
	}
	message := fmt.Sprintf("chore: update deployed versions to %s", c.opts.Version)
	out, err := c.opts.Committer.CommitVersions(ctx, c.result.Versions, message)
	if err != nil {
		c.recordError("version commit-back", err)
		return
	}
	c.record("versions committed: " + firstLine(out))
}

// matchBinaryTags extracts the release tag from step 2's output and keeps it
// only when it belongs to a configured binary project, like "clauderon-v1.4.2".
func matchBinaryTags(output string, projects []string) []string {
	tag := vcshost.ParseReleaseTag(output)
	if tag == "" {
		return nil
	}
	for _, project := range projects {
		if strings.HasPrefix(tag, project+"-v") {
			return []string{tag}
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
