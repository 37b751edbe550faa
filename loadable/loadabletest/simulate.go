// Package loadabletest resolves Loadable states in tests and previews.
package loadabletest

import (
	"context"
	"errors"
	"time"

	"github.com/aupe5089/socialcademy/loadable"
)

// SimulatedLoadingTimeout is how long Simulate waits on a loading state
// before giving up.
const SimulatedLoadingTimeout = 10 * time.Second

var ErrSimulationTimeout = errors.New("timeout exceeded in loading state")

// ErrPreview is the cause carried by Failure.
var ErrPreview = errors.New("Stuff")

// Failure is an error state with a canned cause.
func Failure[T any]() loadable.Loadable[T] {
	return loadable.Failed[T](ErrPreview)
}

// Simulate returns the payload of a loaded state and the cause of an error
// state. A loading state never resolves: Simulate blocks for
// SimulatedLoadingTimeout, or until ctx is done, and fails.
func Simulate[T any](ctx context.Context, l loadable.Loadable[T]) (T, error) {
	return simulate(ctx, l, SimulatedLoadingTimeout)
}

func simulate[T any](ctx context.Context, l loadable.Loadable[T], timeout time.Duration) (T, error) {
	var zero T
	switch l.State() {
	case loadable.StateLoaded:
		value, _ := l.Peek()
		return value, nil
	case loadable.StateError:
		return zero, l.Err()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return zero, ErrSimulationTimeout
	case <-ctx.Done():
		return zero, errors.Join(ErrSimulationTimeout, ctx.Err())
	}
}
