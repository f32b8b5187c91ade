package release

import (
	"context"

	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// DocsSite configures the optional documentation sync. The credential
// fields form a group: the sync runs only when every field is present, and
// a partially-filled group skips the step entirely rather than attempting
// a half-configured upload.
type DocsSite struct {
	Dir             string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Configured reports whether the whole credential group is present
func (d DocsSite) Configured() bool {
	return d.Dir != "" && d.Bucket != "" && d.AccessKeyID != "" && d.SecretAccessKey != ""
}

// Empty reports whether the group is entirely absent
func (d DocsSite) Empty() bool {
	return d.Dir == "" && d.Bucket == "" && d.AccessKeyID == "" && d.SecretAccessKey == ""
}

// Options carries everything one release run needs. It is built once by the
// caller and passed explicitly through every step; the coordinator never
// reads ambient state.
type Options struct {
	// Version is the release version recorded for each successful deploy
	Version string

	// CreateReleasePR creates or updates the release pull request
	CreateReleasePR func(ctx context.Context) (string, error)
	// AttemptRelease tries to materialize a release from a merged release
	// PR. Whether a release actually exists afterwards is decided by
	// inspecting its output for a release URL, not by its error value.
	AttemptRelease func(ctx context.Context) (string, error)
	// PublishPackages publishes the workspace packages
	PublishPackages func(ctx context.Context) (string, error)
	// ClusterRelease deploys the cluster with the versions assembled from
	// the successful application deploys
	ClusterRelease func(ctx context.Context, versions types.AppVersions) (string, error)
	// BuildBinary builds and uploads the binary artifacts for one release tag
	BuildBinary func(ctx context.Context, tag string) (string, error)

	// DeployTasks are the application deploys run concurrently in step 4
	DeployTasks []types.DeployTask

	// BinaryProjects lists the projects whose release tags carry binaries
	BinaryProjects []string

	// Docs, together with Storage, enables the documentation site sync
	Docs    DocsSite
	Storage interfaces.StorageSyncer

	// Committer records the deployed versions once the run is clean
	Committer interfaces.VersionCommitter
}
