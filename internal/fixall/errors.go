package fixall

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled wraps the context error when a run is cancelled.
	ErrCancelled = errors.New("fix-all cancelled")
	// ErrProviderFault wraps an error returned by a diagnostics or fix provider,
	// or by an action's Apply.
	ErrProviderFault = errors.New("fix-all provider fault")
	// ErrInvalidRequest reports a malformed Request or unknown scope target.
	ErrInvalidRequest = errors.New("invalid fix-all request")
)

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

func providerFault(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProviderFault, what, err)
}

// checkCancelled returns a wrapped ErrCancelled if ctx is done.
func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	return nil
}

// stageError normalises the error returned by an errgroup barrier.
func stageError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrProviderFault):
		return err
	case ctx.Err() != nil:
		return cancelled(ctx)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return err
}
