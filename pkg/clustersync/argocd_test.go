package clustersync_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shepherdjerred/conductor/pkg/clustersync"
	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/mocks"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func newSyncer(exec *mocks.MockExecutor) *clustersync.ArgoCD {
	return clustersync.New(exec, "homelab", logger.CreateLoggerWithOutput("", "debug", nil))
}

func TestSyncTriggered(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetResult("argocd", &executor.Result{Stdout: "application 'homelab' synced"})

	result, err := newSyncer(exec).Sync(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != types.StepPassed {
		t.Errorf("expected pass, got %s", result)
	}

	cmd := exec.Commands[0]
	if cmd[0] != "argocd" || cmd[1] != "app" || cmd[2] != "sync" || cmd[3] != "homelab" {
		t.Errorf("unexpected command: %v", cmd)
	}
	if !strings.Contains(strings.Join(cmd, " "), "--auth-token token-abc") {
		t.Errorf("token not passed: %v", cmd)
	}
}

func TestSyncOmitsEmptyToken(t *testing.T) {
	exec := mocks.NewMockExecutor()

	if _, err := newSyncer(exec).Sync(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, arg := range exec.Commands[0] {
		if arg == "--auth-token" {
			t.Error("no token flag expected when token is empty")
		}
	}
}

func TestSyncInProgressIsPass(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetError("argocd", errors.New("argocd exited with code 1: FATA[0000] another operation is already in progress"))

	result, err := newSyncer(exec).Sync(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("concurrent sync must not be an error: %v", err)
	}
	if result.Status != types.StepPassed {
		t.Errorf("concurrent sync should count as a pass, got %s", result)
	}
	if !strings.Contains(result.Message, "already in progress") {
		t.Errorf("message should explain the concurrent sync: %q", result.Message)
	}
}

func TestSyncFailureSurfaces(t *testing.T) {
	exec := mocks.NewMockExecutor()
	exec.SetError("argocd", errors.New("argocd exited with code 20: rpc error: app 'homelab' not found"))

	_, err := newSyncer(exec).Sync(context.Background(), "token-abc")
	if err == nil {
		t.Fatal("expected error for a genuine sync failure")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should carry the CLI output: %v", err)
	}
}
