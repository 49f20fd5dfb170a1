package client

import (
	"context"
)

// Future is the pending result of a call running on its own goroutine.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Go runs fn on a new goroutine with a cancellable child of ctx.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(f.done)
		defer cancel()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the call has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Cancel cancels the context of the call. Await still waits for it to
// return.
func (f *Future[T]) Cancel() { f.cancel() }

// Await waits for the result. If ctx ends first the call keeps running and
// ctx's error is returned.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ConnectAsync starts the engine without blocking.
func (c *Client) ConnectAsync(ctx context.Context) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Connect(ctx)
	})
}

// DisconnectAsync stops the engine without blocking.
func (c *Client) DisconnectAsync(ctx context.Context) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Disconnect(ctx)
	})
}

// TransactionAsync runs Transaction without blocking.
func (c *Client) TransactionAsync(ctx context.Context, fn func(tx *Client) error, opts ...TxOption) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Transaction(ctx, fn, opts...)
	})
}

// AsyncActions is the cooperative counterpart of Actions: every call
// returns a Future instead of blocking.
type AsyncActions[T any] struct {
	actions *Actions[T]
}

// Async returns the cooperative surface of a.
func (a *Actions[T]) Async() *AsyncActions[T] {
	return &AsyncActions[T]{actions: a}
}

// Sync returns the blocking surface.
func (a *AsyncActions[T]) Sync() *Actions[T] { return a.actions }

func (a *AsyncActions[T]) Create(ctx context.Context, data any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.Create(ctx, data, args...) })
}

func (a *AsyncActions[T]) CreateMany(ctx context.Context, data any, args ...Arg) *Future[int] {
	return Go(ctx, func(ctx context.Context) (int, error) { return a.actions.CreateMany(ctx, data, args...) })
}

func (a *AsyncActions[T]) Delete(ctx context.Context, where any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.Delete(ctx, where, args...) })
}

func (a *AsyncActions[T]) DeleteMany(ctx context.Context, where any) *Future[int] {
	return Go(ctx, func(ctx context.Context) (int, error) { return a.actions.DeleteMany(ctx, where) })
}

func (a *AsyncActions[T]) Update(ctx context.Context, where, data any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.Update(ctx, where, data, args...) })
}

func (a *AsyncActions[T]) UpdateMany(ctx context.Context, where, data any) *Future[int] {
	return Go(ctx, func(ctx context.Context) (int, error) { return a.actions.UpdateMany(ctx, where, data) })
}

func (a *AsyncActions[T]) Upsert(ctx context.Context, where, create, update any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.Upsert(ctx, where, create, update, args...) })
}

func (a *AsyncActions[T]) FindUnique(ctx context.Context, where any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.FindUnique(ctx, where, args...) })
}

func (a *AsyncActions[T]) FindUniqueOrThrow(ctx context.Context, where any, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.FindUniqueOrThrow(ctx, where, args...) })
}

func (a *AsyncActions[T]) FindFirst(ctx context.Context, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.FindFirst(ctx, args...) })
}

func (a *AsyncActions[T]) FindFirstOrThrow(ctx context.Context, args ...Arg) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) { return a.actions.FindFirstOrThrow(ctx, args...) })
}

func (a *AsyncActions[T]) FindMany(ctx context.Context, args ...Arg) *Future[[]T] {
	return Go(ctx, func(ctx context.Context) ([]T, error) { return a.actions.FindMany(ctx, args...) })
}

func (a *AsyncActions[T]) Count(ctx context.Context, args ...Arg) *Future[int] {
	return Go(ctx, func(ctx context.Context) (int, error) { return a.actions.Count(ctx, args...) })
}

func (a *AsyncActions[T]) GroupBy(ctx context.Context, by []string, args ...Arg) *Future[[]map[string]any] {
	return Go(ctx, func(ctx context.Context) ([]map[string]any, error) { return a.actions.GroupBy(ctx, by, args...) })
}
