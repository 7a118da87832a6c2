// Package stage defines the poll-based call model shared by every stagekit
// middleware: a [Service] that reports readiness and starts calls, the
// [Future] each call returns, and the [Await] driver that runs a future to
// completion.
//
// # Model
//
// A [Future] does no work until it is polled. Each call to [Future.Poll]
// either makes progress and returns a resolved [Poll], or returns a pending
// [Poll] after arranging for the supplied [Waker] to be woken once more
// progress is possible. Stage futures are written as explicit state machines:
// a small enum of states, one per suspension point, and a loop in Poll that
// advances from one state to the next until it has to wait.
//
// A future must not be polled again after it resolved; doing so yields
// [ErrPolledAfterCompletion].
//
// # Readiness
//
// Callers confirm a service is ready with [Service.PollReady] (or
// [WaitReady]) before calling [Service.Call]. Services are cheap to clone so
// that a call can take ownership of one inner instance while a fresh clone
// stays behind for the next caller.
//
// # Usage
//
//	resp, err := stage.Oneshot(ctx, svc, req)
//
// is equivalent to
//
//	if err := stage.WaitReady(ctx, svc); err != nil {
//	    return err
//	}
//	resp, err := stage.Await(ctx, svc.Call(req))
//
// Canceling ctx abandons the future: it is never polled again and any work it
// had not started yet never starts.
package stage
