// Package runner provides the concurrency primitives for the pipeline engine
package runner

import (
	"context"
	"fmt"

	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// RunAll executes every named operation concurrently and returns one result
// per operation once all have settled. A failing operation never cancels or
// hides its siblings; callers decide how to interpret a non-empty set of
// failures.
func RunAll[T any](ctx context.Context, log logger.Logger, ops []types.NamedOperation[T]) []types.NamedResult[T] {
	results := make([]types.NamedResult[T], len(ops))

	sg, ctx := NewSafeGroup(ctx, log)
	for i, op := range ops {
		i, op := i, op
		sg.Go(func() error {
			results[i] = runOne(ctx, log, op)
			// Errors are captured in the result slot, never surfaced to the
			// group: a sibling must not be cancelled by this failure.
			return nil
		})
	}
	// Wait never returns an error here; panics inside runOne are already
	// converted into the operation's own result.
	_ = sg.Wait()

	return results
}

func runOne[T any](ctx context.Context, log logger.Logger, op types.NamedOperation[T]) (result types.NamedResult[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.WithTask(op.Name).Error("Operation panicked", logger.WithField("panic", r))
			result = types.NamedResult[T]{Name: op.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	value, err := op.Run(ctx)
	if err != nil {
		log.WithTask(op.Name).Debug("Operation failed", logger.WithField("error", err))
		return types.NamedResult[T]{Name: op.Name, Err: err}
	}

	log.WithTask(op.Name).Debug("Operation completed")
	return types.NamedResult[T]{Name: op.Name, Success: true, Value: value}
}

// Failures returns the subset of results that did not succeed
func Failures[T any](results []types.NamedResult[T]) []types.NamedResult[T] {
	var failed []types.NamedResult[T]
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Handle represents an operation launched immediately and joined later.
// The result is captured internally as soon as the operation settles, so an
// un-joined failure can never crash the process.
type Handle[T any] struct {
	name   string
	done   chan struct{}
	result types.NamedResult[T]
}

// Spawn starts the operation in its own goroutine and returns a handle that
// Join can wait on at a later point in the pipeline.
func Spawn[T any](ctx context.Context, log logger.Logger, op types.NamedOperation[T]) *Handle[T] {
	h := &Handle[T]{
		name: op.Name,
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		h.result = runOne(ctx, log, op)
	}()

	return h
}

// Join blocks until the spawned operation has settled and returns its result
func (h *Handle[T]) Join() types.NamedResult[T] {
	<-h.done
	return h.result
}

// JoinAll collects the results of previously spawned handles. All handles are
// joined even when earlier ones failed, so every launched operation is
// observed exactly once.
func JoinAll[T any](handles []*Handle[T]) []types.NamedResult[T] {
	results := make([]types.NamedResult[T], 0, len(handles))
	for _, h := range handles {
		results = append(results, h.Join())
	}
	return results
}
