package bearer

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"

	"github.com/leofalp/stagekit/core/stage"
)

type sourceKind uint8

const (
	sourceStatic sourceKind = iota
	sourceEnv
	sourceFile
)

// source is the closed set of places a token can come from. Exactly one of
// the value fields is meaningful, selected by kind.
type source struct {
	kind  sourceKind
	token string // sourceStatic: the validated header value
	key   string // sourceEnv
	store Store  // sourceEnv
	path  string // sourceFile
}

// Layer configures the bearer stage. It is immutable and safe to copy and
// share; build one with [FromToken], [FromEnv] or [FromFile].
type Layer struct {
	src source
}

// FromToken returns a layer that always sends token. The token is validated
// here, so a malformed token is reported at construction with
// [ErrInvalidCredential].
func FromToken(token string) (Layer, error) {
	value, err := headerValue(token)
	if err != nil {
		return Layer{}, err
	}
	return Layer{src: source{kind: sourceStatic, token: value}}, nil
}

// EnvOption configures [FromEnv].
type EnvOption func(*source)

// WithStore makes FromEnv read from store instead of the process environment.
func WithStore(store Store) EnvOption {
	return func(s *source) {
		s.store = store
	}
}

// FromEnv returns a layer that looks key up on every call.
func FromEnv(key string, opts ...EnvOption) Layer {
	src := source{kind: sourceEnv, key: key, store: OSEnv}
	for _, opt := range opts {
		opt(&src)
	}
	if src.store == nil {
		src.store = OSEnv
	}
	return Layer{src: src}
}

// FromFile returns a layer that reads the whole file at path on every call
// and uses its contents verbatim as the token.
func FromFile(path string) Layer {
	return Layer{src: source{kind: sourceFile, path: path}}
}

// String describes the source without revealing the token.
func (l Layer) String() string {
	switch l.src.kind {
	case sourceEnv:
		return "env:" + l.src.key
	case sourceFile:
		return "file:" + l.src.path
	default:
		return "static"
	}
}

// fetch returns the future that produces the header value for one call.
// Static tokens resolve immediately, environment lookups run on first poll,
// and file reads run on their own goroutine.
func (l Layer) fetch() stage.Future[string] {
	src := l.src
	switch src.kind {
	case sourceEnv:
		return stage.Lazy(func() (string, error) {
			token, err := lookupEnv(src.store, src.key)
			if err != nil {
				return "", err
			}
			return headerValue(token)
		})
	case sourceFile:
		return stage.Spawn(func() (string, error) {
			token, err := readFile(src.path)
			if err != nil {
				return "", err
			}
			return headerValue(token)
		})
	default:
		return stage.Done(src.token, nil)
	}
}

func lookupEnv(store Store, key string) (string, error) {
	token, ok := store.Lookup(key)
	if !ok {
		return "", &Error{Kind: KindMissingEnvironmentVariable, Err: fmt.Errorf("%s is not set", key)}
	}
	if !utf8.ValidString(token) {
		return "", &Error{Kind: KindMissingEnvironmentVariable, Err: fmt.Errorf("%s is not valid UTF-8", key)}
	}
	return token, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Kind: KindIo, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &Error{Kind: KindIo, Err: fmt.Errorf("%s: contents are not valid UTF-8", path)}
	}
	return string(data), nil
}

var errEmptyToken = errors.New("token is empty")

// headerValue validates token and returns the full Authorization value. The
// token must be visible ASCII: spaces, tabs, control bytes and non-ASCII are
// rejected.
func headerValue(token string) (string, error) {
	if token == "" {
		return "", &Error{Kind: KindInvalidCredential, Err: errEmptyToken}
	}
	for i := 0; i < len(token); i++ {
		if c := token[i]; c < 0x21 || c > 0x7e {
			return "", &Error{Kind: KindInvalidCredential, Err: fmt.Errorf("token contains byte %#x at offset %d", c, i)}
		}
	}
	value := "Bearer " + token
	if !httpguts.ValidHeaderFieldValue(value) {
		return "", &Error{Kind: KindInvalidCredential, Err: errors.New("token contains characters not allowed in a header value")}
	}
	return value, nil
}
