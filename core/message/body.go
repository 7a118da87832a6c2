package message

import (
	"errors"
	"io"
	"sync"

	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/internal/utils"
)

// Body is a streamed body. Each PollChunk yields the next chunk, possibly
// empty; the end of the stream is reported as a failed poll with io.EOF. Any
// other error is a drain failure. After a failed poll the body must not be
// polled again.
//
// A Body that also implements io.Closer is closed by [Collect] when draining
// stops early.
type Body interface {
	PollChunk(w *stage.Waker) stage.Poll[[]byte]
}

// ErrBodyTooLarge is returned by [Collect] when a body exceeds its limit.
var ErrBodyTooLarge = errors.New("message: body exceeds size limit")

// readChunkSize bounds a single read of a [FromReader] body.
const readChunkSize = 32 * 1024

// Chunks returns an in-memory body that yields the given chunks in order.
func Chunks(chunks ...[]byte) Body {
	return &chunkBody{chunks: chunks}
}

// Empty returns a body with no chunks.
func Empty() Body {
	return &chunkBody{}
}

type chunkBody struct {
	chunks [][]byte
}

func (b *chunkBody) PollChunk(*stage.Waker) stage.Poll[[]byte] {
	if len(b.chunks) == 0 {
		return stage.Failed[[]byte](io.EOF)
	}
	chunk := b.chunks[0]
	b.chunks = b.chunks[1:]
	return stage.Ready(chunk)
}

// FromReader returns a body that reads rc on demand. Each read runs on its own
// goroutine so polling never blocks. rc is closed once it reports EOF or an
// error, or when Close is called.
func FromReader(rc io.ReadCloser) Body {
	return &readerBody{rc: rc}
}

type readResult struct {
	data []byte
	err  error
}

type readerBody struct {
	rc        io.ReadCloser
	read      stage.Future[readResult]
	err       error
	closeOnce sync.Once
}

func (b *readerBody) PollChunk(w *stage.Waker) stage.Poll[[]byte] {
	for {
		if b.err != nil {
			return stage.Failed[[]byte](b.err)
		}

		if b.read == nil {
			rc := b.rc
			b.read = stage.Spawn(func() (readResult, error) {
				buf := make([]byte, readChunkSize)
				n, err := rc.Read(buf)
				return readResult{data: buf[:n], err: err}, nil
			})
		}

		p := b.read.Poll(w)
		if p.IsPending() {
			return stage.Pending[[]byte]()
		}
		r, _ := p.Result()
		b.read = nil

		if r.err != nil {
			b.err = r.err
			_ = b.Close()
		}
		if len(r.data) > 0 {
			return stage.Ready(r.data)
		}
	}
}

// Close releases the underlying reader. It is safe to call more than once.
func (b *readerBody) Close() error {
	b.closeOnce.Do(func() {
		utils.CloseWithLog(b.rc)
	})
	return nil
}

// Collect returns a future that drains body into one contiguous buffer. A
// positive limit caps the buffer size; exceeding it fails with
// [ErrBodyTooLarge]. Drain errors are returned as reported by the body.
func Collect(body Body, limit int64) stage.Future[[]byte] {
	return &collecting{body: body, limit: limit}
}

type collecting struct {
	body  Body
	buf   []byte
	limit int64
	done  bool
}

func (c *collecting) Poll(w *stage.Waker) stage.Poll[[]byte] {
	if c.done {
		return stage.Failed[[]byte](stage.ErrPolledAfterCompletion)
	}
	for {
		p := c.body.PollChunk(w)
		if p.IsPending() {
			return stage.Pending[[]byte]()
		}

		chunk, err := p.Result()
		if errors.Is(err, io.EOF) {
			c.done = true
			buf := c.buf
			if buf == nil {
				buf = []byte{}
			}
			c.buf = nil
			return stage.Ready(buf)
		}
		if err != nil {
			c.done = true
			return stage.Failed[[]byte](err)
		}

		if c.limit > 0 && int64(len(c.buf)+len(chunk)) > c.limit {
			c.done = true
			if closer, ok := c.body.(io.Closer); ok {
				utils.CloseWithLog(closer)
			}
			return stage.Failed[[]byte](ErrBodyTooLarge)
		}
		c.buf = append(c.buf, chunk...)
	}
}
