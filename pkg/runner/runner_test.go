package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func testLogger() logger.Logger {
	return logger.CreateLoggerWithOutput("", "debug", nil)
}

func TestRunAllReturnsOneResultPerOperation(t *testing.T) {
	counts := []int{0, 3, 5, 8}

	for _, n := range counts {
		t.Run(fmt.Sprintf("%d operations", n), func(t *testing.T) {
			ops := make([]types.NamedOperation[string], 0, n)
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("check-%d", i)
				ops = append(ops, types.NamedOperation[string]{
					Name: name,
					Run: func(ctx context.Context) (string, error) {
						return "ok", nil
					},
				})
			}

			results := RunAll(context.Background(), testLogger(), ops)

			if len(results) != n {
				t.Fatalf("expected %d results, got %d", n, len(results))
			}
			seen := make(map[string]bool)
			for _, r := range results {
				if seen[r.Name] {
					t.Errorf("duplicate result for %s", r.Name)
				}
				seen[r.Name] = true
			}
		})
	}
}

func TestRunAllIsolatesFailures(t *testing.T) {
	ops := []types.NamedOperation[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) { return "a-value", nil }},
		{Name: "b", Run: func(ctx context.Context) (string, error) { return "", errors.New("b broke") }},
		{Name: "c", Run: func(ctx context.Context) (string, error) {
			// Finish after b has already failed to prove no cancellation.
			time.Sleep(20 * time.Millisecond)
			return "c-value", nil
		}},
	}

	results := RunAll(context.Background(), testLogger(), ops)

	byName := make(map[string]types.NamedResult[string])
	for _, r := range results {
		byName[r.Name] = r
	}

	if !byName["a"].Success || byName["a"].Value != "a-value" {
		t.Errorf("a should succeed with its own value, got %+v", byName["a"])
	}
	if byName["b"].Success {
		t.Error("b should fail")
	}
	if byName["b"].Err == nil || byName["b"].Err.Error() != "b broke" {
		t.Errorf("b should carry its own error, got %v", byName["b"].Err)
	}
	if !byName["c"].Success || byName["c"].Value != "c-value" {
		t.Errorf("c should succeed despite b's failure, got %+v", byName["c"])
	}
}

func TestRunAllRecoversPanics(t *testing.T) {
	ops := []types.NamedOperation[string]{
		{Name: "steady", Run: func(ctx context.Context) (string, error) { return "fine", nil }},
		{Name: "panicky", Run: func(ctx context.Context) (string, error) { panic("boom") }},
	}

	results := RunAll(context.Background(), testLogger(), ops)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		switch r.Name {
		case "steady":
			if !r.Success {
				t.Error("steady operation should succeed")
			}
		case "panicky":
			if r.Success {
				t.Error("panicking operation should be recorded as a failure")
			}
			if r.Err == nil {
				t.Error("panicking operation should carry an error")
			}
		}
	}
}

func TestFailures(t *testing.T) {
	results := []types.NamedResult[int]{
		{Name: "ok", Success: true, Value: 1},
		{Name: "bad", Err: errors.New("nope")},
		{Name: "also-ok", Success: true, Value: 2},
	}

	failed := Failures(results)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].Name != "bad" {
		t.Errorf("expected failure named 'bad', got %s", failed[0].Name)
	}
}

func TestSpawnJoinLater(t *testing.T) {
	started := make(chan struct{})

	h := Spawn(context.Background(), testLogger(), types.NamedOperation[string]{
		Name: "compliance checks",
		Run: func(ctx context.Context) (string, error) {
			close(started)
			return "clean", nil
		},
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("spawned operation never started")
	}

	result := h.Join()
	if !result.Success || result.Value != "clean" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSpawnFailureDoesNotCrashBeforeJoin(t *testing.T) {
	h := Spawn(context.Background(), testLogger(), types.NamedOperation[string]{
		Name: "quality & security",
		Run: func(ctx context.Context) (string, error) {
			panic("unobserved rejection")
		},
	})

	// Give the goroutine time to panic while unjoined.
	time.Sleep(20 * time.Millisecond)

	result := h.Join()
	if result.Success {
		t.Error("panicked spawn should report failure")
	}
}

func TestJoinAllObservesEveryHandle(t *testing.T) {
	var handles []*Handle[string]
	for i := 0; i < 4; i++ {
		i := i
		handles = append(handles, Spawn(context.Background(), testLogger(), types.NamedOperation[string]{
			Name: fmt.Sprintf("background-%d", i),
			Run: func(ctx context.Context) (string, error) {
				if i%2 == 0 {
					return "done", nil
				}
				return "", errors.New("failed in background")
			},
		}))
	}

	results := JoinAll(handles)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
}
