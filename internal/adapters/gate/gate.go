// Package gate implements the client for the external click-tracking
// decision service. The service answers with a stream id and an optional
// redirect target; callers treat it as an opaque pass/fail oracle.
package gate

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playforge/ladder/pkg/metrics"
)

// defaultTimeout bounds a single lookup round trip.
const defaultTimeout = 8 * time.Second

// Signals carries the client-derived inputs forwarded upstream.
type Signals struct {
	IP        string
	UserAgent string
	Language  string
	SubID     string
	SubID2    string
}

// Decision is the interpreted upstream verdict. A zero Decision means
// "not passed, no redirect" and is safe to return on any failure.
type Decision struct {
	Passed      bool   `json:"passed"`
	StatusCode  int    `json:"statusCode"`
	StreamID    int64  `json:"streamId"`
	RedirectURL string `json:"url"`
	SubID       string `json:"subId"`
}

// Lookup performs a single external decision call.
type Lookup interface {
	// Check never panics and never blocks past the configured timeout.
	// On failure it returns a not-passed Decision together with the error
	// for logging; the error is not fatal to callers.
	Check(ctx context.Context, sig Signals) (Decision, error)
}

// Client talks to a tracker's click API over HTTPS.
type Client struct {
	tracker       string
	token         string
	allowStreamID int64
	timeout       time.Duration
	httpClient    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTracker sets the tracker base URL, e.g. "https://track.example.com".
func WithTracker(u string) Option {
	return func(c *Client) {
		c.tracker = strings.TrimSuffix(u, "/")
	}
}

// WithToken sets the click API token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAllowStreamID sets the stream id that counts as a pass.
func WithAllowStreamID(id int64) Option {
	return func(c *Client) {
		c.allowStreamID = id
	}
}

// WithTimeout bounds each lookup round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInsecureSSL disables TLS verification for trackers running on
// self-signed certificates. Not for production.
func WithInsecureSSL(insecure bool) Option {
	return func(c *Client) {
		if insecure {
			c.httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-in
			}
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a gate client. Tracker, token and allow-stream-id must
// be configured before Check can succeed.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// clickResponse mirrors the click API JSON body.
type clickResponse struct {
	Info    clickInfo `json:"info"`
	Headers []string  `json:"headers"`
}

type clickInfo struct {
	StreamID int64  `json:"stream_id"`
	Token    string `json:"token"`
	SubID    string `json:"sub_id"`
}

// Check performs one lookup. Timeouts and unusable responses degrade to a
// not-passed Decision plus an error for logging.
func (c *Client) Check(ctx context.Context, sig Signals) (Decision, error) {
	if c.tracker == "" || c.token == "" || c.allowStreamID == 0 {
		return Decision{}, ErrNotConfigured
	}

	metrics.RecordGateLookup()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.clickAPI(ctx, sig)
	if err != nil {
		metrics.RecordGateError()
		return Decision{}, err
	}
	metrics.RecordGateLookupDuration(float64(time.Since(start).Milliseconds()))

	decision := Decision{
		StatusCode: resp.status,
		StreamID:   resp.body.Info.StreamID,
		SubID:      resp.body.Info.SubID,
		Passed:     resp.body.Info.StreamID == c.allowStreamID,
	}

	// Redirect target: Location entry from the click API body, else resolve
	// the landing-page token, else nothing.
	redirect := headerValue(resp.body.Headers, "Location")
	if redirect == "" && resp.body.Info.Token != "" {
		redirect = c.resolveRedirect(ctx, resp.body.Info.Token)
	}
	decision.RedirectURL = stripTrackingParams(redirect)

	return decision, nil
}

type clickResult struct {
	status int
	body   clickResponse
}

// clickAPI issues the decision request with all known client signals.
func (c *Client) clickAPI(ctx context.Context, sig Signals) (clickResult, error) {
	q := url.Values{}
	q.Set("token", c.token)
	q.Set("info", "1")
	q.Set("log", "0")
	if sig.IP != "" {
		q.Set("ip", sig.IP)
	}
	if sig.UserAgent != "" {
		q.Set("user_agent", sig.UserAgent)
	}
	if sig.Language != "" {
		q.Set("language", sig.Language)
	}
	if sig.SubID != "" {
		q.Set("sub_id", sig.SubID)
	}
	if sig.SubID2 != "" {
		q.Set("sub_id_2", sig.SubID2)
	}

	reqURL := c.tracker + "/click_api/v3?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return clickResult{}, fmt.Errorf("build click request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return clickResult{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	// Any status is acceptable as long as the body decodes; the caller only
	// needs the stream id to make a verdict.
	var body clickResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return clickResult{}, fmt.Errorf("%w: decode click response: %v", ErrBadUpstreamResponse, err)
	}
	return clickResult{status: resp.StatusCode, body: body}, nil
}

// resolveRedirect unwraps the landing-page redirect for a click token by
// requesting /?_lp=1&_token=... without following redirects and reading the
// Location header. Best effort; falls back to the landing-page URL itself.
func (c *Client) resolveRedirect(ctx context.Context, token string) string {
	lpURL := c.tracker + "/?_lp=1&_token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lpURL, nil)
	if err != nil {
		return lpURL
	}

	// Do not follow the redirect; the Location header is the answer.
	client := *c.httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return lpURL
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return lpURL
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return lpURL
	}
	return absoluteURL(loc, lpURL)
}

// headerValue finds a "Name: value" entry in a raw header list,
// case-insensitively.
func headerValue(headers []string, name string) string {
	prefix := strings.ToLower(name) + ":"
	for _, h := range headers {
		if strings.HasPrefix(strings.ToLower(h), prefix) {
			return strings.TrimSpace(h[strings.Index(h, ":")+1:])
		}
	}
	return ""
}

// absoluteURL resolves a possibly relative Location against its base.
func absoluteURL(maybeRelative, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return maybeRelative
	}
	u, err := b.Parse(maybeRelative)
	if err != nil {
		return maybeRelative
	}
	return u.String()
}

// stripTrackingParams removes internal tracking parameters from the final
// redirect URL.
func stripTrackingParams(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del("_subid")
	q.Del("_token")
	u.RawQuery = q.Encode()
	return u.String()
}
