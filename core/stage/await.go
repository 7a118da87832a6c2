package stage

import "context"

// Await drives fut to completion on the calling goroutine. Between polls it
// blocks until the future's waker fires or ctx is done. When ctx is done
// first, Await abandons the future and returns ctx.Err().
func Await[T any](ctx context.Context, fut Future[T]) (T, error) {
	w := NewWaker()
	for {
		if p := fut.Poll(w); !p.IsPending() {
			return p.Result()
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-w.C():
		}
	}
}

// WaitReady polls svc until it reports ready or fails, or ctx is done.
func WaitReady[Req, Resp any](ctx context.Context, svc Service[Req, Resp]) error {
	_, err := Await[struct{}](ctx, FutureFunc[struct{}](svc.PollReady))
	return err
}

// Oneshot waits for svc to become ready, calls it with req, and awaits the
// result.
func Oneshot[Req, Resp any](ctx context.Context, svc Service[Req, Resp], req Req) (Resp, error) {
	if err := WaitReady(ctx, svc); err != nil {
		var zero Resp
		return zero, err
	}
	return Await(ctx, svc.Call(req))
}
