// Package notifier provides pipeline run notifications
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/shepherdjerred/conductor/pkg/logger"
)

// PipelineNotifier sends a desktop notification when a pipeline run starts
// and when it reaches a verdict. Useful when running the pipeline locally;
// disabled by default in CI.
type PipelineNotifier struct {
	enabled bool
	logger  logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
}

// New creates a new pipeline notifier
func New(config Config, log logger.Logger) *PipelineNotifier {
	return &PipelineNotifier{
		enabled: config.Enabled,
		logger:  log,
	}
}

// NotifyPipelineStart notifies that a pipeline run has started
func (n *PipelineNotifier) NotifyPipelineStart(runID string) {
	if !n.enabled {
		return
	}

	n.send("🚂 Conductor", fmt.Sprintf("Pipeline run %s started", shortID(runID)))
}

// NotifyPipelineSuccess notifies that a pipeline run succeeded
func (n *PipelineNotifier) NotifyPipelineSuccess(runID string, duration time.Duration) {
	if !n.enabled {
		return
	}

	n.send("✅ Pipeline Succeeded", fmt.Sprintf("Run %s finished in %s", shortID(runID), formatDuration(duration)))
}

// NotifyPipelineFailure notifies that a pipeline run failed
func (n *PipelineNotifier) NotifyPipelineFailure(runID string, err error) {
	if !n.enabled {
		return
	}

	n.send("❌ Pipeline Failed", fmt.Sprintf("Run %s: %v", shortID(runID), err))
}

func (n *PipelineNotifier) send(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
