// Package clustersync triggers the cluster GitOps controller via the argocd CLI
package clustersync

import (
	"context"
	"fmt"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/executor"
	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// inProgressMarker is what the controller prints when a sync was requested
// while another one is still running. The sync is idempotent, so the
// concurrent operation achieves the same outcome and counts as a pass.
const inProgressMarker = "another operation is already in progress"

// ArgoCD implements interfaces.ClusterSyncer over the argocd CLI
type ArgoCD struct {
	executor executor.TaskExecutor
	app      string
	logger   logger.Logger
}

// New creates a syncer for the named application
func New(exec executor.TaskExecutor, app string, log logger.Logger) *ArgoCD {
	return &ArgoCD{
		executor: exec,
		app:      app,
		logger:   log,
	}
}

// Sync requests a sync of the application. A concurrent-operation-in-progress
// response is reported as a pass; any other failure is returned as an error.
func (a *ArgoCD) Sync(ctx context.Context, token string) (types.StepResult, error) {
	args := []string{"app", "sync", a.app}
	if token != "" {
		args = append(args, "--auth-token", token)
	}

	result, err := a.executor.Run(ctx, "argocd", args...)
	if err != nil {
		if isSyncInProgress(err, result) {
			a.logger.WithTask(a.app).Info("Sync already in progress")
			return types.Passed(fmt.Sprintf("cluster sync (%s): already in progress", a.app)), nil
		}
		return types.StepResult{}, err
	}

	a.logger.WithTask(a.app).Success("Sync triggered")
	return types.Passed(fmt.Sprintf("cluster sync (%s) triggered", a.app)), nil
}

func isSyncInProgress(err error, result *executor.Result) bool {
	text := err.Error()
	if result != nil {
		text += " " + result.Stderr
	}
	return strings.Contains(text, inProgressMarker)
}
