package loom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRunSequentialDelay covers the canonical scenario: a run that
// delays once and returns a value resolves to that value.
func TestRunSequentialDelay(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			task.Delay(0)
			return "ok", nil
		})
	})

	r.NoError(err)
	r.Equal("ok", val)
}

// TestRunParentChildAwait covers the parent/child await scenario: a
// parent spawns a child, awaits it, and appends its own suffix.
func TestRunParentChildAwait(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			child := task.Go(func(ctx context.Context, task *Task) (any, error) {
				return "c", nil
			})
			childVal, childErr := task.Await(child)
			if childErr != nil {
				return nil, childErr
			}
			return childVal.(string) + "-p", nil
		})
	})

	r.NoError(err)
	r.Equal("c-p", val)
}

// TestRaceWinnerCancelsLoser covers the race scenario: a fast task
// beats a slow one, and awaiting the loser afterward observes
// Cancelled rather than its own eventual result.
func TestRaceWinnerCancelsLoser(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	var loserErr error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			var slow *Task
			result, raceErr := Race(ctx, []any{
				Func(func(ctx context.Context, task *Task) (any, error) {
					task.Delay(0)
					return "fast", nil
				}),
				Func(func(ctx context.Context, task *Task) (any, error) {
					slow = task
					task.Delay(0.05)
					return "slow", nil
				}),
			})
			if raceErr != nil {
				return nil, raceErr
			}
			_, loserErr = task.Await(slow)
			return result, nil
		})
	})

	r.NoError(err)
	r.Equal("fast", val)
	r.Error(loserErr)
	r.IsType(CancelledError{}, loserErr)
}

// TestAllCollectsEveryResult covers the concurrent-completion case:
// every task finishes before All returns a result map.
func TestAllCollectsEveryResult(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			return All(ctx, map[string]any{
				"a": Func(func(ctx context.Context, task *Task) (any, error) { return 1, nil }),
				"b": Func(func(ctx context.Context, task *Task) (any, error) { return 2, nil }),
			})
		})
	})

	r.NoError(err)
	out := val.(map[string]any)
	r.Equal(1, out["a"])
	r.Equal(2, out["b"])
}

// TestAllPropagatesFirstError covers the error-propagation rule: All
// surfaces a failing member's error rather than the map.
func TestAllPropagatesFirstError(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	boom := &TimeoutError{Seconds: 1}
	var err error
	WithRuntime(rt, func() {
		_, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			return All(ctx, map[string]any{
				"ok": Func(func(ctx context.Context, task *Task) (any, error) { return "fine", nil }),
				"bad": Func(func(ctx context.Context, task *Task) (any, error) {
					return nil, boom
				}),
			})
		})
	})

	r.Error(err)
	r.Equal(boom, err)
}

// TestTimeoutFires covers Timeout's "worker never finishes before the
// deadline" branch.
func TestTimeoutFires(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var err error
	WithRuntime(rt, func() {
		_, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			return Timeout(ctx, func(ctx context.Context, task *Task) (any, error) {
				task.Delay(1)
				return "too slow", nil
			}, 0.01)
		})
	})

	r.Error(err)
	r.IsType(&TimeoutError{}, err)
}

// TestTimeoutSucceedsBeforeDeadline covers Timeout's "worker wins"
// branch.
func TestTimeoutSucceedsBeforeDeadline(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			return Timeout(ctx, func(ctx context.Context, task *Task) (any, error) {
				task.Delay(0)
				return "quick", nil
			}, 1)
		})
	})

	r.NoError(err)
	r.Equal("quick", val)
}

// TestOffloadBridgesBlockingWork exercises Offload end-to-end: a
// background goroutine produces a value the scheduler observes only
// via the offloaded channel, not by mutating the task directly.
func TestOffloadBridgesBlockingWork(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var val any
	var err error
	WithRuntime(rt, func() {
		val, err = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			return Offload(ctx, func() (any, error) {
				return "offloaded", nil
			})
		})
	})

	r.NoError(err)
	r.Equal("offloaded", val)
}

// TestAwaitIdempotent covers the await-idempotence property: awaiting
// an already-done task twice returns the same result both times
// without re-running it.
func TestAwaitIdempotent(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	calls := 0
	var first, second any
	WithRuntime(rt, func() {
		_, _ = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			child := task.Go(func(ctx context.Context, task *Task) (any, error) {
				calls++
				return "once", nil
			})
			first, _ = task.Await(child)
			second, _ = task.Await(child)
			return nil, nil
		})
	})

	r.Equal(1, calls)
	r.Equal("once", first)
	r.Equal("once", second)
}

// TestDeadlockOnEmptyRuntime covers the deadlock scenario: Drive with
// a predicate that never becomes true, and no watcher or timer to
// make progress on, returns ErrDeadlock rather than hanging.
func TestDeadlockOnEmptyRuntime(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	err := rt.Drive(func() bool { return false })
	r.ErrorIs(err, ErrDeadlock)
}

// TestSpawnReturnsAfterFirstSuspension covers the
// return-on-first-suspension contract of Queue, which Spawn delegates
// to (the test calls Queue directly): it returns as soon as the new
// task first suspends, not after it finishes.
func TestSpawnReturnsAfterFirstSuspension(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	reached := false
	task := rt.Queue(context.Background(), func(ctx context.Context, task *Task) (any, error) {
		task.Delay(10)
		reached = true
		return nil, nil
	})

	r.False(task.Done())
	r.False(reached)
}
