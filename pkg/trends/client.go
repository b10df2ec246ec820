package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
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

const (
	// BaseURL is the public Trends origin
	BaseURL = "https://trends.google.com"

	warmupPath    = "/?geo=US"
	explorePath   = "/trends/api/explore"
	multilinePath = "/trends/api/widgetdata/multiline"

	timeseriesWidget = "TIMESERIES"
)

var tracer = otel.Tracer("tagharvest/pkg/trends")

// Options configures a Client
type Options struct {
	BaseURL   string
	Language  string
	// TZ is the timezone offset in minutes passed to the API
	TZ        int
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
	Transport http.RoundTripper
}

// Client fetches interest-over-time series
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
	tz         int
	userAgent  string
	limiter    ratelimit.Limiter
	logger     logger.Logger

	mu     sync.Mutex
	warmed bool
}

// NewClient creates a Trends client
func NewClient(opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Language == "" {
		opts.Language = "en-US"
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

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
			Jar:       jar,
		},
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		language:  opts.Language,
		tz:        opts.TZ,
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		logger:    opts.Logger.WithField("component", "trends"),
	}, nil
}

// stripXSSI drops the anti-hijacking prefix in front of the JSON body
func stripXSSI(body []byte) ([]byte, error) {
	i := bytes.IndexByte(body, '{')
	if i < 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "response carries no JSON object")
	}
	return body[i:], nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", c.language)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()
	logger.LogRequest(c.logger, req.Method, path, resp.StatusCode, float64(time.Since(start).Microseconds())/1000)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.FromStatus(resp.StatusCode, fmt.Sprintf("unexpected status %s", resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}
	return body, nil
}

// warmup visits the landing page once so the API accepts the session cookies
func (c *Client) warmup(ctx context.Context) error {
	c.mu.Lock()
	warmed := c.warmed
	c.mu.Unlock()
	if warmed {
		return nil
	}
	if _, err := c.get(ctx, warmupPath, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.warmed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) apiParams(req string) url.Values {
	return url.Values{
		"hl":  {c.language},
		"tz":  {strconv.Itoa(c.tz)},
		"req": {req},
	}
}

func (c *Client) timeseriesWidget(ctx context.Context, q Query) (*widget, error) {
	req, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: q.Keyword, Time: q.Timeframe, Geo: q.Geo}},
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to encode explore request", err)
	}

	body, err := c.get(ctx, explorePath, c.apiParams(string(req)))
	if err != nil {
		return nil, err
	}
	body, err = stripXSSI(body)
	if err != nil {
		return nil, err
	}
	var explore exploreResponse
	if err := json.Unmarshal(body, &explore); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to decode explore response", err)
	}
	for i := range explore.Widgets {
		if explore.Widgets[i].ID == timeseriesWidget {
			return &explore.Widgets[i], nil
		}
	}
	return nil, errs.New(errs.ErrorTypeParsing, "explore response has no timeseries widget")
}

// Interest fetches the interest-over-time series for a query. A query
// the service has no data for yields an empty series and no error.
func (c *Client) Interest(ctx context.Context, q Query) (Series, error) {
	ctx, span := tracer.Start(ctx, "trends.Interest")
	defer span.End()
	span.SetAttributes(
		attribute.String("trends.keyword", q.Keyword),
		attribute.String("trends.timeframe", q.Timeframe),
	)

	series, err := c.interest(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("trends.points", len(series)))
	return series, nil
}

func (c *Client) interest(ctx context.Context, q Query) (Series, error) {
	if err := c.warmup(ctx); err != nil {
		return nil, err
	}
	w, err := c.timeseriesWidget(ctx, q)
	if err != nil {
		return nil, err
	}

	params := c.apiParams(string(w.Request))
	params.Set("token", w.Token)
	body, err := c.get(ctx, multilinePath, params)
	if err != nil {
		return nil, err
	}
	body, err = stripXSSI(body)
	if err != nil {
		return nil, err
	}
	var ml multilineResponse
	if err := json.Unmarshal(body, &ml); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to decode timeline", err)
	}
	return decodeTimeline(ml.Default.TimelineData)
}

func decodeTimeline(data []timelinePoint) (Series, error) {
	series := make(Series, 0, len(data))
	for _, tp := range data {
		sec, err := strconv.ParseInt(tp.Time, 10, 64)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, fmt.Sprintf("bad point time %q", tp.Time), err)
		}
		p := Point{Date: time.Unix(sec, 0).UTC(), Partial: tp.IsPartial}
		if len(tp.Value) > 0 {
			p.Value = tp.Value[0]
		}
		series = append(series, p)
	}
	return series, nil
}
