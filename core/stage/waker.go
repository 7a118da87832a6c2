package stage

// Waker is the notification handle passed to every poll. A future that returns
// pending must make sure Wake is called once it can make progress again.
//
// Wakes coalesce: any number of Wake calls between two waits on C count as
// one. Wake never blocks and is safe to call from any goroutine.
type Waker struct {
	ch chan struct{}
}

// NewWaker returns a waker with no pending wake.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake signals the owner of the waker to poll again.
func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives a value after Wake.
func (w *Waker) C() <-chan struct{} {
	return w.ch
}
