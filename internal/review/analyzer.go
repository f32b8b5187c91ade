// Package review computes the analysis inputs for the automated PR review
// workflow. The review run itself happens elsewhere; this package only
// decides whether and how hard to review.
package review

import (
	"strings"

	"github.com/shepherdjerred/conductor/pkg/types"
)

// PullRequest carries the metadata the analyzer inspects
type PullRequest struct {
	Number    int
	Title     string
	Author    string
	Draft     bool
	Labels    []string
	Additions int
	Deletions int
	// ChangedFiles is the number of files touched by the PR
	ChangedFiles int
	// PreviousReviews lists earlier review conclusions, oldest first
	PreviousReviews []types.ReviewState
}

// Size thresholds on total changed lines.
const (
	mediumChangeThreshold = 100
	highChangeThreshold   = 600
	highFileThreshold     = 25
)

// Turn budgets per complexity class.
const (
	maxTurnsLow    = 10
	maxTurnsMedium = 20
	maxTurnsHigh   = 30
)

const skipLabel = "skip-review"

// Analyze computes the review decision inputs for a pull request
func Analyze(pr PullRequest) types.PrAnalysis {
	total := pr.Additions + pr.Deletions
	complexity := classify(total, pr.ChangedFiles)

	previous := types.ReviewStateNone
	if len(pr.PreviousReviews) > 0 {
		previous = pr.PreviousReviews[len(pr.PreviousReviews)-1]
	}

	return types.PrAnalysis{
		ShouldSkip:          shouldSkip(pr),
		MaxTurns:            maxTurns(complexity),
		Complexity:          complexity,
		IsRereview:          len(pr.PreviousReviews) > 0,
		PreviousState:       previous,
		PreviousWasApproved: previous == types.ReviewStateApproved,
		TotalChanges:        total,
		ChangedFiles:        pr.ChangedFiles,
	}
}

// shouldSkip filters out PRs that never need an automated review: drafts,
// bot-authored release PRs, and anything explicitly opted out via label.
func shouldSkip(pr PullRequest) bool {
	if pr.Draft {
		return true
	}
	if strings.HasSuffix(pr.Author, "[bot]") {
		return true
	}
	if strings.HasPrefix(pr.Title, "chore(release)") {
		return true
	}
	for _, label := range pr.Labels {
		if label == skipLabel {
			return true
		}
	}
	return false
}

func classify(totalChanges, changedFiles int) types.Complexity {
	if totalChanges >= highChangeThreshold || changedFiles > highFileThreshold {
		return types.ComplexityHigh
	}
	if totalChanges >= mediumChangeThreshold {
		return types.ComplexityMedium
	}
	return types.ComplexityLow
}

func maxTurns(c types.Complexity) int {
	switch c {
	case types.ComplexityHigh:
		return maxTurnsHigh
	case types.ComplexityMedium:
		return maxTurnsMedium
	default:
		return maxTurnsLow
	}
}
