package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/logger"
	"github.com/shepherdjerred/conductor/pkg/types"
)

// ErrorClassifier reports whether an error is a transient infrastructure
// failure that is worth retrying. Anything it rejects is rethrown
// immediately; retry is a narrow, signature-gated mechanism rather than a
// general resilience policy.
type ErrorClassifier func(error) bool

// transientGraphQLSignature is the backend timeout observed in production
// when the GitHub GraphQL API drops a deploy request.
const transientGraphQLSignature = "unknown error while requesting data via graphql"

// IsTransientGraphQL matches the known GraphQL backend timeout signature
func IsTransientGraphQL(err error) bool {
	return err != nil && strings.Contains(err.Error(), transientGraphQLSignature)
}

// WithRetry runs fn, retrying only when classify marks the error as
// transient and attempts remain. maxRetries=0 means exactly one attempt.
// When retries are exhausted the last error is returned.
func WithRetry[T any](
	ctx context.Context,
	log logger.Logger,
	name string,
	fn func(ctx context.Context) (T, error),
	maxRetries int,
	classify ErrorClassifier,
) (T, error) {
	var lastErr error
	var zero T

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		// Auth failures are fatal regardless of what the message matches.
		var authErr *types.AuthError
		if errors.As(err, &authErr) {
			return zero, err
		}
		if !classify(err) {
			return zero, err
		}
		if attempt <= maxRetries {
			log.WithTask(name).Warn("Transient failure, retrying",
				logger.WithField("attempt", attempt),
				logger.WithField("max_retries", maxRetries),
				logger.WithField("error", err))
		}
	}

	return zero, lastErr
}
