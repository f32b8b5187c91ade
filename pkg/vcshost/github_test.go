package vcshost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/mocks"
	"github.com/shepherdjerred/conductor/pkg/types"
	"github.com/shepherdjerred/conductor/pkg/vcshost"
)

func TestParseReleaseURL(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "release created",
			output: "✓ Release created\nhttps://github.com/shepherdjerred/monorepo/releases/tag/v2.1.0\n",
			want:   "https://github.com/shepherdjerred/monorepo/releases/tag/v2.1.0",
		},
		{
			name:   "no release in output",
			output: "nothing to release\n",
			want:   "",
		},
		{
			name:   "plain github url is not a release",
			output: "see https://github.com/shepherdjerred/monorepo/pull/42\n",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vcshost.ParseReleaseURL(tt.output); got != tt.want {
				t.Errorf("ParseReleaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReleaseTag(t *testing.T) {
	output := "https://github.com/shepherdjerred/monorepo/releases/tag/clauderon-v1.2.3"
	if got := vcshost.ParseReleaseTag(output); got != "clauderon-v1.2.3" {
		t.Errorf("ParseReleaseTag() = %q", got)
	}
	if got := vcshost.ParseReleaseTag("no url here"); got != "" {
		t.Errorf("expected empty tag, got %q", got)
	}
}

func TestCreateReleaseInvokesCLI(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetResult("gh", &executor.Result{
		Stdout: "https://github.com/shepherdjerred/monorepo/releases/tag/v1.0.0",
	})
	host := vcshost.New(exec, "shepherdjerred/monorepo", logger.CreateLoggerWithOutput("", "debug", nil))

	output, err := host.CreateRelease(context.Background(), "v1.0.0", "v1.0.0", "release notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vcshost.ParseReleaseTag(output) != "v1.0.0" {
		t.Errorf("expected release URL in output, got %q", output)
	}
	if exec.CallCount("gh") != 1 {
		t.Errorf("expected one gh invocation, got %d", exec.CallCount("gh"))
	}
}

func TestCreateReleaseFailureSurfacesOutput(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetError("gh", errors.New("gh exited with code 1: release already exists"))
	host := vcshost.New(exec, "shepherdjerred/monorepo", logger.CreateLoggerWithOutput("", "debug", nil))

	_, err := host.CreateRelease(context.Background(), "v1.0.0", "v1.0.0", "notes")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCredentialFailureSurfacesAsAuthError(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetError("gh", errors.New("gh exited with code 4: To get started with GitHub CLI, please run: gh auth login"))
	host := vcshost.New(exec, "shepherdjerred/monorepo", logger.CreateLoggerWithOutput("", "debug", nil))

	_, err := host.CreateRelease(context.Background(), "v1.0.0", "v1.0.0", "notes")

	var authErr *types.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestPostReviewRejectsUnknownVerdict(t *testing.T) {
	exec := mocks.NewMockExecutor()
	host := vcshost.New(exec, "shepherdjerred/monorepo", logger.CreateLoggerWithOutput("", "debug", nil))

	_, err := host.PostReview(context.Background(), 42, "maybe", "body")
	if err == nil {
		t.Fatal("expected error for unknown verdict")
	}
	if exec.CallCount("gh") != 0 {
		t.Error("invalid verdict must not reach the CLI")
	}
}
