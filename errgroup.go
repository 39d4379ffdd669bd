package loom

import "context"

// ErrGroup runs a group of child tasks and collects the first error
// any of them returns, cancelling the group's shared context as soon
// as one does.
type ErrGroup interface {
	// Go starts a new task with the group's context.
	Go(func(context.Context) error)
	// GoWithContext starts a new task with ctx, which must belong to
	// the same task that created the group.
	GoWithContext(context.Context, func(context.Context) error)
	// Wait suspends the caller until every task in the group has
	// finished, returning the first error any of them returned.
	Wait() error
}

// errGroup implements ErrGroup on top of Task.Go and WaitGroup.
type errGroup struct {
	task   *Task
	ctx    context.Context
	cancel func(error)
	wg     WaitGroup
	err    error
}

// Group returns a new ErrGroup rooted at t, with a context derived
// from t's that is cancelled with cause as soon as any child task in
// the group returns an error.
func (t *Task) Group() ErrGroup {
	ctx, cancel := context.WithCancelCause(t.context())
	return &errGroup{task: t, ctx: ctx, cancel: cancel}
}

func (g *errGroup) Go(f func(context.Context) error) {
	g.goctx(g.ctx, f)
}

func (g *errGroup) GoWithContext(ctx context.Context, f func(context.Context) error) {
	if task, ok := TaskFromContext(ctx); !ok || task != g.task {
		callerBug("errgroup: ctx does not belong to the task that created this group")
	}
	g.goctx(ctx, f)
}

func (g *errGroup) goctx(ctx context.Context, f func(context.Context) error) {
	g.wg.Add(1)
	g.task.rt.queue(ctx, g.task, func(ctx context.Context, _ *Task) (any, error) {
		defer g.wg.Done()
		if err := f(ctx); err != nil && g.err == nil {
			g.err = err
			if g.cancel != nil {
				g.cancel(g.err)
			}
		}
		return nil, nil
	})
}

func (g *errGroup) Wait() error {
	g.wg.Wait(g.task)
	if g.cancel != nil {
		g.cancel(g.err)
	}
	return g.err
}
