package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/unkn0wn-root/idcache/codec"
)

const defaultMaxBody = 1 << 20

var ErrNoPath = errors.New("remote: path is required")

// Config configures an HTTP fetcher. Only Path is required.
type Config[V any] struct {
	Path string // e.g. "/user_management/users/"

	Codec   codec.Codec[V] // nil => codec.JSON[V]
	Accept  string         // "" => the codec's media type
	MaxBody int            // 0 => 1 MiB

	// Jar carries the session cookie. Typically credential.JarStore.Jar().
	Jar http.CookieJar
	// HTTPClient is the base client. nil => cleanhttp.DefaultPooledClient().
	// Jar, when set, replaces the client's jar.
	HTTPClient *http.Client

	// RetryMax bounds retries of connection errors and 5xx responses.
	// 0 => a single attempt.
	RetryMax     int
	RetryWaitMin time.Duration // 0 => 100ms
	RetryWaitMax time.Duration // 0 => 1.5s
}

// HTTP fetches one resource from {apiBase}{Path}.
type HTTP[V any] struct {
	path   string
	accept string
	codec  codec.Codec[V]
	client *retryablehttp.Client
}

var _ Fetcher[map[string]any] = (*HTTP[map[string]any])(nil)

func NewHTTP[V any](cfg Config[V]) (*HTTP[V], error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}
	path := cfg.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var cd codec.Codec[V] = codec.JSON[V]{}
	if cfg.Codec != nil {
		cd = cfg.Codec
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	accept := cfg.Accept
	if accept == "" {
		accept = codec.MediaTypeOf(cd)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	if cfg.Jar != nil {
		cp := *hc
		cp.Jar = cfg.Jar
		hc = &cp
	}

	rc := &retryablehttp.Client{
		HTTPClient:   hc,
		RetryWaitMin: coalesceDur(cfg.RetryWaitMin, 100*time.Millisecond),
		RetryWaitMax: coalesceDur(cfg.RetryWaitMax, 1500*time.Millisecond),
		RetryMax:     cfg.RetryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &HTTP[V]{
		path:   path,
		accept: accept,
		codec:  codec.LimitCodec[V]{Inner: cd, MaxDecode: maxBody},
		client: rc,
	}, nil
}

// Path returns the resource path appended to the API base.
func (h *HTTP[V]) Path() string { return h.path }

func (h *HTTP[V]) Fetch(ctx context.Context, apiBase string) (V, error) {
	var zero V
	url := apiBase + h.path
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, fmt.Errorf("remote: build request: %w", err)
	}
	if h.accept != "" {
		req.Header.Set("Accept", h.accept)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return zero, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit so LimitCodec can tell "exactly max" from "over".
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(h.maxBody())+1))
	if err != nil {
		return zero, fmt.Errorf("remote: read body: %w", err)
	}
	v, err := h.codec.Decode(body)
	if err != nil {
		return zero, fmt.Errorf("remote: decode %s: %w", url, err)
	}
	return v, nil
}

func (h *HTTP[V]) maxBody() int {
	if lc, ok := h.codec.(codec.LimitCodec[V]); ok {
		return lc.MaxDecode
	}
	return defaultMaxBody
}

func coalesceDur(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}
