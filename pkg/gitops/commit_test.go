package gitops

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# monorepo\n"), 0o644))
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("README.md")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@localhost", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func readVersionsFile(t *testing.T, dir string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "versions.yaml"))
	require.NoError(t, err)
	versions := make(map[string]string)
	require.NoError(t, yaml.Unmarshal(data, &versions))
	return versions
}

func TestCommitVersionsCreatesFile(t *testing.T) {
	dir := initRepo(t)
	committer := New(dir, "versions.yaml", logger.CreateLoggerWithOutput("", "debug", nil))

	hash, err := committer.CommitVersions(context.Background(), types.AppVersions{
		"ghcr.io/shepherdjerred/birmel":  "1.4.0",
		"ghcr.io/shepherdjerred/homelab": "2.0.1",
	}, "chore: update deployed versions")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	versions := readVersionsFile(t, dir)
	assert.Equal(t, "1.4.0", versions["ghcr.io/shepherdjerred/birmel"])
	assert.Equal(t, "2.0.1", versions["ghcr.io/shepherdjerred/homelab"])
}

func TestCommitVersionsPreservesUntouchedEntries(t *testing.T) {
	dir := initRepo(t)
	existing := map[string]string{
		"ghcr.io/shepherdjerred/multiplexer": "0.9.0",
	}
	data, err := yaml.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versions.yaml"), data, 0o644))

	committer := New(dir, "versions.yaml", logger.CreateLoggerWithOutput("", "debug", nil))
	_, err = committer.CommitVersions(context.Background(), types.AppVersions{
		"ghcr.io/shepherdjerred/birmel": "1.4.0",
	}, "chore: update deployed versions")
	require.NoError(t, err)

	versions := readVersionsFile(t, dir)
	assert.Equal(t, "0.9.0", versions["ghcr.io/shepherdjerred/multiplexer"],
		"entries for apps not deployed this run must survive")
	assert.Equal(t, "1.4.0", versions["ghcr.io/shepherdjerred/birmel"])
}

func TestCommitVersionsNoChanges(t *testing.T) {
	dir := initRepo(t)
	committer := New(dir, "versions.yaml", logger.CreateLoggerWithOutput("", "debug", nil))

	versions := types.AppVersions{"ghcr.io/shepherdjerred/birmel": "1.4.0"}
	_, err := committer.CommitVersions(context.Background(), versions, "chore: update versions")
	require.NoError(t, err)

	out, err := committer.CommitVersions(context.Background(), versions, "chore: update versions")
	require.NoError(t, err)
	assert.Equal(t, "no version changes", out)
}
