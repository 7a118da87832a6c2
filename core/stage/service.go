package stage

// Service is the inner service contract every stage wraps and every stage
// implements.
//
// PollReady reports whether the service can accept a call. Call must only be
// invoked after PollReady resolved without error, and it consumes that
// readiness. Clone returns an independent instance that can be made ready and
// called separately; stages rely on it to hand one instance to an in-flight
// call while keeping another available.
//
// A Service value is not safe for concurrent use. Share it across goroutines
// by cloning or by serializing PollReady and Call.
type Service[Req, Resp any] interface {
	PollReady(w *Waker) Poll[struct{}]
	Call(req Req) Future[Resp]
	Clone() Service[Req, Resp]
}

// Layer produces a Service of one shape from an inner Service of another.
type Layer[InReq, InResp, OutReq, OutResp any] interface {
	Layer(inner Service[InReq, InResp]) Service[OutReq, OutResp]
}

// LayerFunc adapts a function to the [Layer] interface.
type LayerFunc[InReq, InResp, OutReq, OutResp any] func(inner Service[InReq, InResp]) Service[OutReq, OutResp]

// Layer calls f(inner).
func (f LayerFunc[InReq, InResp, OutReq, OutResp]) Layer(inner Service[InReq, InResp]) Service[OutReq, OutResp] {
	return f(inner)
}

// Func is a Service that is always ready and calls the wrapped function for
// each request. It is its own clone.
type Func[Req, Resp any] func(req Req) Future[Resp]

// PollReady always resolves ready.
func (f Func[Req, Resp]) PollReady(*Waker) Poll[struct{}] {
	return Ready(struct{}{})
}

// Call invokes f.
func (f Func[Req, Resp]) Call(req Req) Future[Resp] {
	return f(req)
}

// Clone returns f.
func (f Func[Req, Resp]) Clone() Service[Req, Resp] {
	return f
}
