package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout    = 20 * time.Second
	defaultRequestTimeout = 20 * time.Second

	// APIKeyHeader is the header used to pass API keys to RPC providers.
	APIKeyHeader = "x-api-key"
)

// Client represents the middleman for executing JSON RPC calls to remote
// NEAR RPC nodes. Client is thread-safe and can be used from multiple
// goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	opts     Options
	log      *zap.Logger
	requestF func(context.Context, *nearrpc.Request) (*nearrpc.Response, error)

	latestReqID *atomic.Uint64
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 20 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// Headers are added to every request.
	Headers map[string]string
	// APIKey is sent in the APIKeyHeader if not empty.
	APIKey string
	// Logger is used for request tracing, no logging by default.
	Logger *zap.Logger
}

// New returns a new Client ready to use.
func New(endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	cl := &Client{
		cli:         httpClient,
		endpoint:    u,
		opts:        opts,
		log:         opts.Logger,
		latestReqID: atomic.NewUint64(0),
	}
	cl.requestF = cl.makeHTTPRequest
	return cl, nil
}

// Endpoint returns the RPC node URL the client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(ctx context.Context, method string, p any, v any) error {
	var r = nearrpc.NewRequest(c.latestReqID.Inc(), method, p)

	start := time.Now()
	raw, err := c.requestF(ctx, r)
	addReqTimeMetric(method, time.Since(start), err == nil && (raw == nil || raw.Error == nil))

	if raw != nil && raw.Error != nil {
		c.log.Debug("RPC error", zap.String("method", method), zap.Uint64("id", r.ID), zap.Error(raw.Error))
		return raw.Error
	} else if err != nil {
		c.log.Debug("RPC request failed", zap.String("method", method), zap.Uint64("id", r.ID), zap.Error(err))
		return err
	} else if raw == nil || raw.Result == nil || string(raw.Result) == "null" {
		return nearrpc.ErrNoResult
	}
	c.log.Debug("RPC request done", zap.String("method", method), zap.Uint64("id", r.ID),
		zap.Duration("duration", time.Since(start)))
	return json.Unmarshal(raw.Result, v)
}

func (c *Client) makeHTTPRequest(ctx context.Context, r *nearrpc.Request) (*nearrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(nearrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	if c.opts.APIKey != "" {
		req.Header.Set(APIKeyHeader, c.opts.APIKey)
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
