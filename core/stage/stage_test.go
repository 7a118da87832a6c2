package stage_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/core/stage/stagetest"
)

// TestPoll_Constructors verifies the pending/ready/failed states of Poll.
func TestPoll_Constructors(t *testing.T) {
	if !stage.Pending[int]().IsPending() {
		t.Error("expected Pending to be pending")
	}

	v, err := stage.Ready(7).Result()
	if err != nil || v != 7 {
		t.Errorf("expected (7, nil), got (%d, %v)", v, err)
	}

	boom := errors.New("boom")
	p := stage.Failed[int](boom)
	if p.IsPending() {
		t.Error("expected Failed to be resolved")
	}
	if _, err := p.Result(); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	if _, err := stage.Resolve(1, boom).Result(); !errors.Is(err, boom) {
		t.Errorf("expected Resolve to keep the error, got %v", err)
	}
}

// TestWaker_Coalesces verifies that repeated wakes collapse into one signal
// and never block.
func TestWaker_Coalesces(t *testing.T) {
	w := stage.NewWaker()
	w.Wake()
	w.Wake()
	w.Wake()

	select {
	case <-w.C():
	default:
		t.Fatal("expected a pending wake")
	}

	select {
	case <-w.C():
		t.Fatal("expected wakes to coalesce into one")
	default:
	}
}

// TestLazy_RunsOnFirstPollOnly verifies that Lazy defers its function to the
// first poll and refuses a second poll.
func TestLazy_RunsOnFirstPollOnly(t *testing.T) {
	var runs int
	fut := stage.Lazy(func() (string, error) {
		runs++
		return "ok", nil
	})

	if runs != 0 {
		t.Fatalf("expected no run before poll, got %d", runs)
	}

	w := stage.NewWaker()
	v, err := fut.Poll(w).Result()
	if err != nil || v != "ok" {
		t.Fatalf("expected (ok, nil), got (%q, %v)", v, err)
	}

	if _, err := fut.Poll(w).Result(); !errors.Is(err, stage.ErrPolledAfterCompletion) {
		t.Errorf("expected ErrPolledAfterCompletion, got %v", err)
	}
	if runs != 1 {
		t.Errorf("expected exactly one run, got %d", runs)
	}
}

// TestSpawn_WakesOnCompletion verifies that a spawned future is pending while
// its goroutine is blocked and wakes the waker once it finishes.
func TestSpawn_WakesOnCompletion(t *testing.T) {
	release := make(chan struct{})
	fut := stage.Spawn(func() (int, error) {
		<-release
		return 42, nil
	})

	w := stage.NewWaker()
	if !fut.Poll(w).IsPending() {
		t.Fatal("expected pending while the goroutine is blocked")
	}

	close(release)

	select {
	case <-w.C():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a wake after completion")
	}

	v, err := fut.Poll(w).Result()
	if err != nil || v != 42 {
		t.Fatalf("expected (42, nil), got (%d, %v)", v, err)
	}
	if _, err := fut.Poll(w).Result(); !errors.Is(err, stage.ErrPolledAfterCompletion) {
		t.Errorf("expected ErrPolledAfterCompletion, got %v", err)
	}
}

// TestSpawn_NeverPolledNeverRuns verifies that dropping a spawned future
// before its first poll means its function never starts.
func TestSpawn_NeverPolledNeverRuns(t *testing.T) {
	var ran atomic.Bool
	_ = stage.Spawn(func() (int, error) {
		ran.Store(true)
		return 0, nil
	})

	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Error("expected the function not to run without a poll")
	}
}

// TestAwait_DrivesYieldingFuture verifies that Await keeps polling across
// suspensions until the future resolves.
func TestAwait_DrivesYieldingFuture(t *testing.T) {
	v, err := stage.Await(context.Background(), stagetest.Yield(3, "done", nil))
	if err != nil || v != "done" {
		t.Fatalf("expected (done, nil), got (%q, %v)", v, err)
	}
}

// TestAwait_ContextCanceled verifies that Await abandons a future that never
// wakes once the context is canceled.
func TestAwait_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var polls int
	never := stage.FutureFunc[int](func(*stage.Waker) stage.Poll[int] {
		polls++
		return stage.Pending[int]()
	})

	_, err := stage.Await[int](ctx, never)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if polls != 1 {
		t.Errorf("expected a single poll without wakes, got %d", polls)
	}
}

// TestOneshot_Func verifies the ready-call-await sequence on a Func service.
func TestOneshot_Func(t *testing.T) {
	svc := stage.Func[int, int](func(req int) stage.Future[int] {
		return stage.Done(req*2, nil)
	})

	v, err := stage.Oneshot[int, int](context.Background(), svc, 21)
	if err != nil || v != 42 {
		t.Fatalf("expected (42, nil), got (%d, %v)", v, err)
	}
}

// TestOneshot_ReadyError verifies that a readiness failure stops the call.
func TestOneshot_ReadyError(t *testing.T) {
	notReady := errors.New("not ready")
	inner := stagetest.NewService(func(req int) (int, error) { return req, nil })
	inner.ReadyErr = notReady

	_, err := stage.Oneshot[int, int](context.Background(), inner, 1)
	if !errors.Is(err, notReady) {
		t.Fatalf("expected readiness error, got %v", err)
	}
	if inner.Calls() != 0 {
		t.Errorf("expected no calls, got %d", inner.Calls())
	}
}

// TestLayerFunc verifies that LayerFunc satisfies Layer and applies its
// function.
func TestLayerFunc(t *testing.T) {
	var layer stage.Layer[int, int, int, int] = stage.LayerFunc[int, int, int, int](
		func(inner stage.Service[int, int]) stage.Service[int, int] {
			return stage.Func[int, int](func(req int) stage.Future[int] {
				return inner.Call(req + 1)
			})
		},
	)

	echo := stage.Func[int, int](func(req int) stage.Future[int] { return stage.Done(req, nil) })
	v, err := stage.Oneshot(context.Background(), layer.Layer(echo), 1)
	if err != nil || v != 2 {
		t.Fatalf("expected (2, nil), got (%d, %v)", v, err)
	}
}
