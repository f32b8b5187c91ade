// Package mocks provides mock implementations of collaborator interfaces for testing
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// MockExecutor is a scriptable TaskExecutor. Commands are matched by their
// program name; unmatched commands succeed with empty output.
type MockExecutor struct {
	mu       sync.Mutex
	results  map[string]*executor.Result
	errors   map[string]error
	Commands [][]string
}

// NewMockExecutor creates a new mock executor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		results: make(map[string]*executor.Result),
		errors:  make(map[string]error),
	}
}

// SetResult scripts the result for a program
func (m *MockExecutor) SetResult(program string, result *executor.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[program] = result
}

// SetError scripts an error for a program
func (m *MockExecutor) SetError(program string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[program] = err
}

// Run records the invocation and returns the scripted result
func (m *MockExecutor) Run(ctx context.Context, program string, args ...string) (*executor.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, append([]string{program}, args...))

	if err, ok := m.errors[program]; ok {
		return &executor.Result{ExitCode: 1}, err
	}
	if result, ok := m.results[program]; ok {
		return result, nil
	}
	return &executor.Result{}, nil
}

// CallCount returns how many times a program was invoked
func (m *MockExecutor) CallCount(program string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, cmd := range m.Commands {
		if cmd[0] == program {
			count++
		}
	}
	return count
}

// MockRegistryPublisher records publishes
type MockRegistryPublisher struct {
	mu         sync.Mutex
	publishErr error
	Published  []string
}

// NewMockRegistryPublisher creates a new mock registry publisher
func NewMockRegistryPublisher() *MockRegistryPublisher {
	return &MockRegistryPublisher{}
}

// SetPublishError scripts a publish failure
func (m *MockRegistryPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

// Publish records the reference and returns it
func (m *MockRegistryPublisher) Publish(ctx context.Context, sourceDir, reference string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.Published = append(m.Published, reference)
	return reference, nil
}

// MockStorageSyncer records sync calls
type MockStorageSyncer struct {
	mu      sync.Mutex
	syncErr error
	Synced  []string
}

// NewMockStorageSyncer creates a new mock storage syncer
func NewMockStorageSyncer() *MockStorageSyncer {
	return &MockStorageSyncer{}
}

// SetSyncError scripts a sync failure
func (m *MockStorageSyncer) SetSyncError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncErr = err
}

// Sync records the call and returns a summary line
func (m *MockStorageSyncer) Sync(ctx context.Context, dir, bucket string, opts interfaces.SyncOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.syncErr != nil {
		return "", m.syncErr
	}
	m.Synced = append(m.Synced, bucket)
	return fmt.Sprintf("synced %s to %s", dir, bucket), nil
}

// MockClusterSyncer returns a scripted sync result
type MockClusterSyncer struct {
	mu     sync.Mutex
	result types.StepResult
	err    error
	Calls  int
}

// NewMockClusterSyncer creates a mock that passes by default
func NewMockClusterSyncer() *MockClusterSyncer {
	return &MockClusterSyncer{
		result: types.Passed("cluster sync triggered"),
	}
}

// SetResult scripts the sync result
func (m *MockClusterSyncer) SetResult(result types.StepResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.err = err
}

// Sync returns the scripted result
func (m *MockClusterSyncer) Sync(ctx context.Context, token string) (types.StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.result, m.err
}

// MockVCSHost scripts VCS host responses per method
type MockVCSHost struct {
	mu sync.Mutex

	ReleaseOutput string
	ReleaseErr    error
	PROutput      string
	PRErr         error
	AssetErr      error

	CreatedReleases []string
	CreatedPRs      []string
	UploadedAssets  []string
	Comments        []string
	Reviews         []string
}

// NewMockVCSHost creates a new mock VCS host
func NewMockVCSHost() *MockVCSHost {
	return &MockVCSHost{}
}

// CreateRelease returns the scripted release output
func (m *MockVCSHost) CreateRelease(ctx context.Context, tag, title, notes string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReleaseErr != nil {
		return "", m.ReleaseErr
	}
	m.CreatedReleases = append(m.CreatedReleases, tag)
	return m.ReleaseOutput, nil
}

// UploadAsset records the uploaded asset path
func (m *MockVCSHost) UploadAsset(ctx context.Context, tag, assetPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AssetErr != nil {
		return "", m.AssetErr
	}
	m.UploadedAssets = append(m.UploadedAssets, assetPath)
	return "uploaded " + assetPath, nil
}

// CreatePR records the PR title
func (m *MockVCSHost) CreatePR(ctx context.Context, title, body, branch string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PRErr != nil {
		return "", m.PRErr
	}
	m.CreatedPRs = append(m.CreatedPRs, title)
	return m.PROutput, nil
}

// PostComment records the comment body
func (m *MockVCSHost) PostComment(ctx context.Context, prNumber int, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comments = append(m.Comments, body)
	return "commented", nil
}

// PostReview records the review verdict
func (m *MockVCSHost) PostReview(ctx context.Context, prNumber int, verdict, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reviews = append(m.Reviews, verdict)
	return "reviewed", nil
}

// MockVersionCommitter records committed version maps
type MockVersionCommitter struct {
	mu        sync.Mutex
	commitErr error
	Committed []types.AppVersions
}

// NewMockVersionCommitter creates a new mock version committer
func NewMockVersionCommitter() *MockVersionCommitter {
	return &MockVersionCommitter{}
}

// SetCommitError scripts a commit failure
func (m *MockVersionCommitter) SetCommitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}

// CommitVersions records the versions map
func (m *MockVersionCommitter) CommitVersions(ctx context.Context, versions types.AppVersions, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return "", m.commitErr
	}
	copied := types.AppVersions{}
	for k, v := range versions {
		copied[k] = v
	}
	m.Committed = append(m.Committed, copied)
	return "committed", nil
}

// CommitCount returns how many commits were recorded
func (m *MockVersionCommitter) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Committed)
}

// MockNotifier records pipeline notifications
type MockNotifier struct {
	mu        sync.Mutex
	Starts    []string
	Successes []string
	Failures  []string
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyPipelineStart records a start event
func (m *MockNotifier) NotifyPipelineStart(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts = append(m.Starts, runID)
}

// NotifyPipelineSuccess records a success event
func (m *MockNotifier) NotifyPipelineSuccess(runID string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Successes = append(m.Successes, runID)
}

// NotifyPipelineFailure records a failure event
func (m *MockNotifier) NotifyPipelineFailure(runID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures = append(m.Failures, runID)
}
