package loom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMutexSerializesAccess covers Mutex's core contract: two tasks
// contending for the same lock never both hold it, and a held lock
// queues the second acquirer until the first releases.
func TestMutexSerializesAccess(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	var order []string
	var mu Mutex
	WithRuntime(rt, func() {
		_, _ = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			first := task.Go(func(ctx context.Context, task *Task) (any, error) {
				mu.Lock(task)
				order = append(order, "first-in")
				task.Delay(0)
				order = append(order, "first-out")
				mu.Unlock()
				return nil, nil
			})
			second := task.Go(func(ctx context.Context, task *Task) (any, error) {
				mu.Lock(task)
				order = append(order, "second-in")
				mu.Unlock()
				return nil, nil
			})
			_, _ = task.Await(first)
			_, _ = task.Await(second)
			return nil, nil
		})
	})

	r.Equal([]string{"first-in", "first-out", "second-in"}, order)
}

// TestWaitGroupWaitsForEveryMember covers WaitGroup's Add/Done/Wait
// cycle across several child tasks.
func TestWaitGroupWaitsForEveryMember(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	done := 0
	WithRuntime(rt, func() {
		_, _ = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			var wg WaitGroup
			wg.Add(3)
			for i := 0; i < 3; i++ {
				task.Go(func(ctx context.Context, task *Task) (any, error) {
					task.Delay(0)
					done++
					wg.Done()
					return nil, nil
				})
			}
			wg.Wait(task)
			return nil, nil
		})
	})

	r.Equal(3, done)
}

// TestSingleFlightDeduplicatesConcurrentCalls covers Task.Do: two
// concurrent calls sharing a key observe the same result, and the
// underlying function runs exactly once.
func TestSingleFlightDeduplicatesConcurrentCalls(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	calls := 0
	var firstVal, secondVal any
	var firstShared, secondShared bool
	WithRuntime(rt, func() {
		_, _ = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			a := task.Go(func(ctx context.Context, task *Task) (any, error) {
				v, err, shared := task.Do("key", func() (any, error) {
					calls++
					task.Delay(0)
					return "computed", nil
				})
				firstVal, firstShared = v, shared
				return v, err
			})
			b := task.Go(func(ctx context.Context, task *Task) (any, error) {
				v, err, shared := task.Do("key", func() (any, error) {
					calls++
					task.Delay(0)
					return "computed", nil
				})
				secondVal, secondShared = v, shared
				return v, err
			})
			_, _ = task.Await(a)
			_, _ = task.Await(b)
			return nil, nil
		})
	})

	r.Equal(1, calls)
	r.Equal("computed", firstVal)
	r.Equal("computed", secondVal)
	r.True(firstShared)
	r.True(secondShared)
}

// TestErrGroupCollectsFirstError covers Task.Group: the group's Wait
// returns the first error any member returned, and every member still
// runs to completion.
func TestErrGroupCollectsFirstError(t *testing.T) {
	r := require.New(t)

	rt := NewRuntime()
	boom := &TimeoutError{Seconds: 1}
	ran := 0
	var runErr error
	WithRuntime(rt, func() {
		_, runErr = Run(context.Background(), func(ctx context.Context, task *Task) (any, error) {
			g := task.Group()
			g.Go(func(ctx context.Context) error {
				ran++
				return nil
			})
			g.Go(func(ctx context.Context) error {
				ran++
				return boom
			})
			return nil, g.Wait()
		})
	})

	r.Equal(2, ran)
	r.Equal(boom, runErr)
}
