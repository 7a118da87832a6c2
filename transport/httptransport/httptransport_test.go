package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
)

func newRequest(t *testing.T, method, url string, body []byte) Request {
	t.Helper()
	req, err := message.NewRequest(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

// TestTransport_RoundTrip verifies method, headers and body reach the server
// and the streamed response body aggregates to what the server wrote.
func TestTransport_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Auth", r.Header.Get("Authorization"))
		w.Header().Set("X-Length", fmt.Sprint(r.ContentLength))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, "echo:%s", data)
	}))
	defer server.Close()

	req := newRequest(t, http.MethodPost, server.URL, []byte(`{"a":1}`))
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("Content-Length", "999")

	resp, err := stage.Oneshot[Request, Response](context.Background(), New(server.Client().Transport), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if resp.Header.Get("X-Method") != http.MethodPost || resp.Header.Get("X-Auth") != "Bearer t" {
		t.Errorf("unexpected echo headers: %v", resp.Header)
	}
	if resp.Header.Get("X-Length") != "7" {
		t.Errorf("ContentLength seen by server = %s, want 7", resp.Header.Get("X-Length"))
	}

	body, err := stage.Await(context.Background(), message.Collect(resp.Body, 0))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if string(body) != `echo:{"a":1}` {
		t.Errorf("body = %q", body)
	}
}

// TestTransport_EmptyBody verifies a request without body is sent with no
// content.
func TestTransport_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.ContentLength)
	}))
	defer server.Close()

	resp, err := stage.Oneshot[Request, Response](context.Background(), New(nil), newRequest(t, http.MethodGet, server.URL, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := stage.Await(context.Background(), message.Collect(resp.Body, 0))
	if string(body) != "0" {
		t.Errorf("ContentLength seen by server = %s, want 0", body)
	}
}

// TestTransport_ConnectionError verifies transport failures resolve the
// future with an error.
func TestTransport_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := stage.Oneshot[Request, Response](context.Background(), New(nil), newRequest(t, http.MethodGet, url, nil))
	if err == nil {
		t.Fatal("expected an error for a closed server")
	}
}

// TestTransport_MissingURL verifies a request without URL fails cleanly.
func TestTransport_MissingURL(t *testing.T) {
	_, err := stage.Oneshot[Request, Response](context.Background(), New(nil), Request{})
	if err == nil {
		t.Fatal("expected an error for a request without URL")
	}
}

// TestTransport_RequestContext verifies the round trip observes the request's
// context.
func TestTransport_RequestContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := newRequest(t, http.MethodGet, server.URL, nil).WithContext(ctx)
	fut := New(nil).Call(req)

	// Drive without a deadline so the result comes from the round trip itself.
	_, err := stage.Await(context.Background(), fut)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded from the round trip, got %v", err)
	}
}

// TestTransport_NotPolledNotSent verifies no request is sent until the future
// is polled.
func TestTransport_NotPolledNotSent(t *testing.T) {
	hits := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer server.Close()

	_ = New(nil).Call(newRequest(t, http.MethodGet, server.URL, nil))

	select {
	case <-hits:
		t.Fatal("request sent without a poll")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestWithTracing verifies the round tripper is wrapped with otelhttp.
func TestWithTracing(t *testing.T) {
	tr := New(http.DefaultTransport, WithTracing())
	if _, ok := tr.rt.(*otelhttp.Transport); !ok {
		t.Errorf("expected *otelhttp.Transport, got %T", tr.rt)
	}

	clone := tr.Clone().(*Transport)
	if clone.rt != tr.rt {
		t.Error("expected clone to share the round tripper")
	}
}
