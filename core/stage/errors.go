package stage

import "errors"

// ErrPolledAfterCompletion is returned by a future that is polled again after
// it already resolved.
var ErrPolledAfterCompletion = errors.New("stage: future polled after completion")
