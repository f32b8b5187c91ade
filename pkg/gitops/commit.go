// Package gitops commits deployed version metadata back to source control
package gitops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"gopkg.in/yaml.v3"

	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// Committer writes the AppVersions map into a tracked versions file and
// commits it. It implements interfaces.VersionCommitter.
type Committer struct {
	repoPath     string
	versionsFile string
	authorName   string
	authorEmail  string
	token        string
	push         bool
	logger       logger.Logger
}

// Option configures a Committer
type Option func(*Committer)

// WithAuthor sets the commit author
func WithAuthor(name, email string) Option {
	return func(c *Committer) {
		c.authorName = name
		c.authorEmail = email
	}
}

// WithPush enables pushing the commit using the given token
func WithPush(token string) Option {
	return func(c *Committer) {
		c.token = token
		c.push = true
	}
}

// New creates a Committer for the repository at repoPath. versionsFile is
// relative to the repository root.
func New(repoPath, versionsFile string, log logger.Logger, opts ...Option) *Committer {
	c := &Committer{
		repoPath:     repoPath,
		versionsFile: versionsFile,
		authorName:   "conductor",
		authorEmail:  "conductor@localhost",
		logger:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CommitVersions merges the successfully-deployed versions into the tracked
// versions file and commits the result. Existing entries for keys absent
// from the map are left untouched, so a skipped deploy never loses its last
// recorded version.
func (c *Committer) CommitVersions(ctx context.Context, versions types.AppVersions, message string) (string, error) {
	repo, err := git.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository %s: %w", c.repoPath, err)
	}

	path := filepath.Join(c.repoPath, c.versionsFile)
	merged, err := mergeVersionsFile(path, versions)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("failed to encode versions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", c.versionsFile, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if _, err := worktree.Add(c.versionsFile); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", c.versionsFile, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", err
	}
	if status.IsClean() {
		c.logger.Info("No version changes to commit")
		return "no version changes", nil
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.authorName,
			Email: c.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit versions: %w", err)
	}

	if c.push {
		err := repo.PushContext(ctx, &git.PushOptions{
			Auth: &githttp.BasicAuth{
				Username: "x-access-token",
				Password: c.token,
			},
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return "", fmt.Errorf("failed to push version commit: %w", err)
		}
	}

	c.logger.Success("Committed versions", logger.WithField("commit", hash.String()))
	return hash.String(), nil
}

func mergeVersionsFile(path string, versions types.AppVersions) (map[string]string, error) {
	merged := make(map[string]string)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &merged); err != nil {
			return nil, fmt.Errorf("failed to parse existing versions file: %w", err)
		}
	case os.IsNotExist(err):
		// First release run creates the file.
	default:
		return nil, err
	}

	for key, version := range versions {
		merged[key] = version
	}
	return merged, nil
}
