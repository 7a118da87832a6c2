package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/internal/logsetup"
	"github.com/leofalp/stagekit/internal/utils"
	"github.com/leofalp/stagekit/middleware/bearer"
	"github.com/leofalp/stagekit/middleware/collect"
	"github.com/leofalp/stagekit/middleware/jsonbody"
	"github.com/leofalp/stagekit/middleware/logging"
	"github.com/leofalp/stagekit/transport/httptransport"
)

const (
	// DefaultTimeout bounds the whole request unless --timeout is given.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent unless a User-Agent header is given.
	DefaultUserAgent = "stagefetch/1.0"
	// DefaultLimit caps response bodies (10MB).
	DefaultLimit = 10 * 1024 * 1024
)

type fetchOptions struct {
	token     string
	tokenEnv  string
	tokenFile string
	dotenv    []string
	method    string
	data      string
	headers   []string
	markdown  bool
	json      bool
	repair    bool
	verbose   bool
	fail      bool
	trace     bool
	timeout   time.Duration
	limit     int64
}

func newRootCommand() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:           "stagefetch [flags] URL",
		Short:         "Send one HTTP request through a stagekit pipeline",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.token, "token", "", "Bearer token to send")
	flags.StringVar(&opts.tokenEnv, "token-env", "", "Environment variable holding the bearer token")
	flags.StringVar(&opts.tokenFile, "token-file", "", "File whose contents are the bearer token")
	flags.StringSliceVar(&opts.dotenv, "dotenv", nil, "Resolve --token-env against these .env files instead of the process environment")
	flags.StringVarP(&opts.method, "method", "X", http.MethodGet, "HTTP method")
	flags.StringVarP(&opts.data, "data", "d", "", "Request body, sent as JSON unless a Content-Type header is given")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Extra request header as 'Name: value' (repeatable)")
	flags.BoolVar(&opts.markdown, "markdown", false, "Convert an HTML response body to Markdown")
	flags.BoolVar(&opts.json, "json", false, "Decode the response as JSON and pretty-print it")
	flags.BoolVar(&opts.repair, "repair", false, "With --json, repair syntactically broken documents")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every stage call with headers (credentials redacted)")
	flags.BoolVar(&opts.fail, "fail", false, "Exit with an error on HTTP status 400 and above")
	flags.BoolVar(&opts.trace, "trace", false, "Instrument the transport with OpenTelemetry")
	flags.DurationVar(&opts.timeout, "timeout", DefaultTimeout, "Overall request timeout")
	flags.Int64Var(&opts.limit, "limit", DefaultLimit, "Maximum response body size in bytes")

	cmd.MarkFlagsMutuallyExclusive("token", "token-env", "token-file")
	cmd.MarkFlagsMutuallyExclusive("markdown", "json")

	return cmd
}

func runFetch(ctx context.Context, opts *fetchOptions, rawURL string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := buildRequest(ctx, opts, rawURL)
	if err != nil {
		return err
	}

	svc, err := buildPipeline(opts, errOut)
	if err != nil {
		return err
	}

	if opts.json {
		return fetchJSON(ctx, opts, svc, req, out)
	}
	return fetchRaw(ctx, opts, svc, req, out)
}

// buildRequest normalizes rawURL, prepending https:// when no scheme is
// given, and applies the method, body and headers.
func buildRequest(ctx context.Context, opts *fetchOptions, rawURL string) (httptransport.Request, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return httptransport.Request{}, fmt.Errorf("URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	var body []byte
	if opts.data != "" {
		body = []byte(opts.data)
	}
	req, err := message.NewRequest(ctx, strings.ToUpper(opts.method), rawURL, body)
	if err != nil {
		return httptransport.Request{}, err
	}

	for _, header := range opts.headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return httptransport.Request{}, fmt.Errorf("invalid header %q: expected 'Name: value'", header)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", jsonbody.ContentType)
	}
	return req, nil
}

// buildPipeline assembles transport, bearer and logging stages.
func buildPipeline(opts *fetchOptions, errOut io.Writer) (stage.Service[httptransport.Request, httptransport.Response], error) {
	var transportOpts []httptransport.Option
	if opts.trace {
		transportOpts = append(transportOpts, httptransport.WithTracing())
	}

	logLevel, stageLevel := slog.LevelWarn, logging.LevelStandard
	if opts.verbose {
		logLevel, stageLevel = slog.LevelDebug, logging.LevelVerbose
	}
	logger := logsetup.New(logsetup.WithLevel(logLevel), logsetup.WithOutput(errOut))
	transportOpts = append(transportOpts, httptransport.WithLogger(logger))

	var svc stage.Service[httptransport.Request, httptransport.Response] = httptransport.New(nil, transportOpts...)

	credential, err := credentialLayer(opts)
	if err != nil {
		return nil, err
	}
	if credential != nil {
		logger.Debug("using bearer credential", slog.String("source", credential.String()))
		svc = bearer.Wrap[[]byte, httptransport.Response](*credential, svc)
	}

	return logging.Wrap(logging.NewLayer(logger, stageLevel, "http"), svc), nil
}

func credentialLayer(opts *fetchOptions) (*bearer.Layer, error) {
	switch {
	case opts.token != "":
		layer, err := bearer.FromToken(opts.token)
		if err != nil {
			return nil, fmt.Errorf("invalid --token: %w", err)
		}
		return &layer, nil
	case opts.tokenEnv != "":
		if len(opts.dotenv) == 0 {
			layer := bearer.FromEnv(opts.tokenEnv)
			return &layer, nil
		}
		store, err := bearer.DotenvStore(opts.dotenv...)
		if err != nil {
			return nil, err
		}
		layer := bearer.FromEnv(opts.tokenEnv, bearer.WithStore(store))
		return &layer, nil
	case opts.tokenFile != "":
		layer := bearer.FromFile(opts.tokenFile)
		return &layer, nil
	default:
		return nil, nil
	}
}

func fetchRaw(ctx context.Context, opts *fetchOptions, svc stage.Service[httptransport.Request, httptransport.Response], req httptransport.Request, out io.Writer) error {
	collected := collect.Wrap[httptransport.Request](collect.NewLayer(collect.WithLimit(opts.limit)), svc)
	resp, err := stage.Oneshot[httptransport.Request, message.Response[[]byte]](ctx, collected, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(opts, resp.StatusCode, string(resp.Body)); err != nil {
		return err
	}

	body := string(resp.Body)
	if opts.markdown && isHTML(resp.Header) {
		body, err = htmltomarkdown.ConvertString(body)
		if err != nil {
			return fmt.Errorf("failed to convert HTML to Markdown: %w", err)
		}
	}

	_, err = io.WriteString(out, body)
	if err == nil && !strings.HasSuffix(body, "\n") {
		_, err = io.WriteString(out, "\n")
	}
	return err
}

func fetchJSON(ctx context.Context, opts *fetchOptions, svc stage.Service[httptransport.Request, httptransport.Response], req httptransport.Request, out io.Writer) error {
	decodeOpts := []jsonbody.Option{jsonbody.WithLimit(opts.limit)}
	if opts.repair {
		decodeOpts = append(decodeOpts, jsonbody.WithRepair())
	}
	decoded := jsonbody.Wrap[httptransport.Request, any](jsonbody.NewLayer[any](decodeOpts...), svc)

	resp, err := stage.Oneshot[httptransport.Request, message.Response[any]](ctx, decoded, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(opts, resp.StatusCode, utils.JSONToString(resp.Body, false)); err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, utils.JSONToString(resp.Body, true))
	return err
}

func checkStatus(opts *fetchOptions, status int, body string) error {
	if !opts.fail || status < http.StatusBadRequest {
		return nil
	}
	return fmt.Errorf("unexpected status code: %d %s: %s", status, http.StatusText(status), utils.TruncateString(body, 200))
}

func isHTML(header http.Header) bool {
	return strings.Contains(strings.ToLower(header.Get("Content-Type")), "text/html")
}
