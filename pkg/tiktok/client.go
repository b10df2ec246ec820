package tiktok

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"

	errs "tagharvest/pkg/errors"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/ratelimit"
)

var tracer = otel.Tracer("tagharvest/pkg/tiktok")

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MSToken and SessionID are optional web session cookies
	MSToken   string
	SessionID string
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Client fetches video detail records. A Client owns one web session
// (its cookie jar); when the session is reported expired it is recreated
// once and the request reissued. Close releases it.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	msToken    string
	sessionID  string
	limiter    ratelimit.Limiter
	logger     logger.Logger

	mu       sync.Mutex
	closed   bool
	renewals int
}

// NewClient creates a client with a fresh session
func NewClient(opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
		},
		baseURL:   opts.BaseURL,
		msToken:   opts.MSToken,
		sessionID: opts.SessionID,
		limiter:   opts.Limiter,
		logger:    opts.Logger.WithField("component", "tiktok"),
	}
	if opts.UserAgent != "" {
		c.headers["User-Agent"] = opts.UserAgent
	}
	if err := c.newSession(); err != nil {
		return nil, err
	}
	return c, nil
}

// newSession replaces the cookie jar and seeds the configured cookies
func (c *Client) newSession() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	var cookies []*http.Cookie
	if c.msToken != "" {
		cookies = append(cookies, &http.Cookie{Name: "msToken", Value: c.msToken, Path: "/"})
	}
	if c.sessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: "sessionid", Value: c.sessionID, Path: "/"})
	}
	jar.SetCookies(base, cookies)

	c.mu.Lock()
	c.httpClient.Jar = jar
	c.mu.Unlock()
	return nil
}

// Renewals reports how many times the session was recreated
func (c *Client) Renewals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renewals
}

// Close ends the session; further fetches fail
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"url": req.URL.String(),
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "request failed", err)
	}
	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, elapsed)
	return resp, nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return errs.FromStatus(resp.StatusCode, fmt.Sprintf("unexpected status %s", resp.Status))
}

func (c *Client) getPage(ctx context.Context, pageURL string) ([]byte, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, errs.New(errs.ErrorTypeUnknown, "client closed")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}
	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, id string) (*Video, error) {
	body, err := c.getPage(ctx, VideoURL(c.baseURL, id))
	if err != nil {
		return nil, err
	}
	return ParseVideoPage(body, id)
}

// FetchVideo returns the detail record for a video ID. A page without a
// record yields (nil, nil). On an auth error the session is recreated and
// the request issued once more.
func (c *Client) FetchVideo(ctx context.Context, id string) (*Video, error) {
	ctx, span := tracer.Start(ctx, "tiktok.FetchVideo")
	defer span.End()
	span.SetAttributes(attribute.String("tiktok.video_id", id))

	v, err := c.fetchOnce(ctx, id)
	if errs.Is(err, errs.ErrorTypeAuth) {
		c.logger.WithError(err).WarnWithFields("session expired, recreating", map[string]interface{}{
			"video_id": id,
		})
		if rerr := c.newSession(); rerr != nil {
			err = rerr
		} else {
			c.mu.Lock()
			c.renewals++
			c.mu.Unlock()
			v, err = c.fetchOnce(ctx, id)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}
