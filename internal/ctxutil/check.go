// Package ctxutil provides context utility functions.
package ctxutil

import (
	"context"
	"fmt"
	"time"
)

// Canceled returns the context error if ctx is done, nil otherwise.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// Stage returns nil while ctx is live. Once ctx is done it returns the
// context error annotated with the stage that was about to start, so an
// interrupted run reports where it stopped. A deadline that has passed
// counts as done even if its timer has not fired yet.
func Stage(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%s: %w", stage, context.DeadlineExceeded)
	}
	return nil
}
