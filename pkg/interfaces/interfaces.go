// Package interfaces provides abstractions for dependency injection and testability
package interfaces

import (
	"context"
	"time"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// RegistryPublisher pushes a packaged artifact to a container registry.
// Publish is idempotent per tag; repeating a push of identical content is
// safe.
type RegistryPublisher interface {
	Publish(ctx context.Context, sourceDir, reference string) (string, error)
}

// SyncOptions configures an object-storage sync
type SyncOptions struct {
	// DeleteRemoved removes remote objects that no longer exist locally
	DeleteRemoved bool
	// Prefix places synced objects under a key prefix within the bucket
	Prefix string
}

// StorageSyncer uploads a directory to an object-storage bucket
type StorageSyncer interface {
	Sync(ctx context.Context, dir, bucket string, opts SyncOptions) (string, error)
}

// ClusterSyncer triggers a sync of the cluster GitOps controller. A
// "sync already in progress" response is reported as a pass: the sync is
// idempotent and a concurrent operation achieves the same outcome.
type ClusterSyncer interface {
	Sync(ctx context.Context, token string) (types.StepResult, error)
}

// VCSHost abstracts the version-control hosting provider. Each call either
// returns the provider's text output or fails.
type VCSHost interface {
	CreateRelease(ctx context.Context, tag, title, notes string) (string, error)
	UploadAsset(ctx context.Context, tag, assetPath string) (string, error)
	CreatePR(ctx context.Context, title, body, branch string) (string, error)
	PostComment(ctx context.Context, prNumber int, body string) (string, error)
	PostReview(ctx context.Context, prNumber int, verdict, body string) (string, error)
}

// VersionCommitter records the deployed application versions back to source
// control once a release run has finished without errors.
type VersionCommitter interface {
	CommitVersions(ctx context.Context, versions types.AppVersions, message string) (string, error)
}

// PipelineNotifier reports run lifecycle events to the operator
type PipelineNotifier interface {
	NotifyPipelineStart(runID string)
	NotifyPipelineSuccess(runID string, duration time.Duration)
	NotifyPipelineFailure(runID string, err error)
}

// Dependencies bundles the collaborators injected into the pipeline engine
type Dependencies struct {
	Executor  executor.TaskExecutor
	Registry  RegistryPublisher
	Storage   StorageSyncer
	Cluster   ClusterSyncer
	VCS       VCSHost
	Committer VersionCommitter
	Notifier  PipelineNotifier
}
