// Package vcshost talks to the version-control hosting provider via the gh CLI
package vcshost

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// releaseURLPattern matches the URL the provider prints when a release is
// actually created. The CLI's exit code alone is not a reliable signal of
// "a release now exists", so callers inspect output for this shape.
var releaseURLPattern = regexp.MustCompile(`https://github\.com/[^/\s]+/[^/\s]+/releases/tag/(\S+)`)

// ParseReleaseURL returns the first release URL found in output, or ""
func ParseReleaseURL(output string) string {
	return releaseURLPattern.FindString(output)
}

// ParseReleaseTag returns the tag component of the first release URL found
// in output, or ""
func ParseReleaseTag(output string) string {
	m := releaseURLPattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// GitHub implements interfaces.VCSHost over the gh CLI
type GitHub struct {
	executor executor.TaskExecutor
	repo     string
	logger   logger.Logger
}

// New creates a GitHub host client. repo is "owner/name".
func New(exec executor.TaskExecutor, repo string, log logger.Logger) *GitHub {
	return &GitHub{
		executor: exec,
		repo:     repo,
		logger:   log,
	}
}

func (g *GitHub) run(ctx context.Context, args ...string) (string, error) {
	args = append(args, "--repo", g.repo)
	result, err := g.executor.Run(ctx, "gh", args...)
	if err != nil {
		if isAuthFailure(err, result) {
			return "", &types.AuthError{Op: "gh " + args[0], Err: err}
		}
		if result != nil {
			return result.Output(), err
		}
		return "", err
	}
	return result.Output(), nil
}

// isAuthFailure recognizes the gh CLI's credential errors so they surface as
// fatal instead of being mistaken for retryable task failures.
func isAuthFailure(err error, result *executor.Result) bool {
	text := err.Error()
	if result != nil {
		text += " " + result.Stderr
	}
	for _, marker := range []string{"HTTP 401", "HTTP 403", "authentication required", "gh auth login"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// CreateRelease materializes a release for the given tag
func (g *GitHub) CreateRelease(ctx context.Context, tag, title, notes string) (string, error) {
	g.logger.Info("Creating release", logger.WithField("tag", tag))
	return g.run(ctx, "release", "create", tag, "--title", title, "--notes", notes)
}

// UploadAsset attaches a file to an existing release
func (g *GitHub) UploadAsset(ctx context.Context, tag, assetPath string) (string, error) {
	g.logger.Info("Uploading release asset",
		logger.WithField("tag", tag),
		logger.WithField("asset", assetPath))
	return g.run(ctx, "release", "upload", tag, assetPath, "--clobber")
}

// CreatePR creates or updates a pull request from branch
func (g *GitHub) CreatePR(ctx context.Context, title, body, branch string) (string, error) {
	g.logger.Info("Creating pull request", logger.WithField("branch", branch))
	return g.run(ctx, "pr", "create", "--title", title, "--body", body, "--head", branch)
}

// PostComment adds a comment to a pull request
func (g *GitHub) PostComment(ctx context.Context, prNumber int, body string) (string, error) {
	return g.run(ctx, "pr", "comment", strconv.Itoa(prNumber), "--body", body)
}

// PostReview submits a review on a pull request. verdict is one of
// "approve", "request-changes", or "comment".
func (g *GitHub) PostReview(ctx context.Context, prNumber int, verdict, body string) (string, error) {
	switch verdict {
	case "approve", "request-changes", "comment":
	default:
		return "", fmt.Errorf("unknown review verdict: %s", verdict)
	}
	return g.run(ctx, "pr", "review", strconv.Itoa(prNumber), "--"+verdict, "--body", body)
}
