package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SkipWarningHeader tells the tunnelling proxy in front of the API to skip
// its browser interstitial page.
const SkipWarningHeader = "ngrok-skip-browser-warning"

// ErrStatus marks a FetchError caused by a non-2xx response.
var ErrStatus = errors.New("unexpected status")

// FetchError is the single error class for everything that can go wrong
// while talking to the API: transport failure, bad status, or bad JSON.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the intelligence API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets an overall per-request timeout. Zero leaves requests
// bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient returns a client for baseURL. Trailing slashes are trimmed.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    NewHTTPClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient builds the transport used for API calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Dashboard fetches the current threat level, trend and top entities.
func (c *Client) Dashboard(ctx context.Context) (*DashboardSnapshot, error) {
	var out DashboardSnapshot
	if err := c.getJSON(ctx, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewsEvents fetches the most recent news-sourced events.
func (c *Client) NewsEvents(ctx context.Context, limit int) ([]Event, error) {
	return c.events(ctx, "/events/news", limit)
}

// ChatterEvents fetches the most recent social-media-sourced events.
func (c *Client) ChatterEvents(ctx context.Context, limit int) ([]Event, error) {
	return c.events(ctx, "/events/chatter", limit)
}

// Events fetches both feeds concurrently and returns them merged, newest
// first. Either feed failing fails the whole call.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	var (
		wg                  sync.WaitGroup
		news, chatter       []Event
		newsErr, chatterErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		news, newsErr = c.NewsEvents(ctx, limit)
	}()
	go func() {
		defer wg.Done()
		chatter, chatterErr = c.ChatterEvents(ctx, limit)
	}()
	wg.Wait()

	if err := errors.Join(newsErr, chatterErr); err != nil {
		return nil, err
	}
	return MergeEvents(news, chatter), nil
}

// Summary fetches the daily intelligence summary.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := c.getJSON(ctx, "/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActualEvents fetches the ground-truth casualty events.
func (c *Client) ActualEvents(ctx context.Context) ([]CasualtyEvent, error) {
	var out []CasualtyEvent
	if err := c.getJSON(ctx, "/actual-events", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []CasualtyEvent{}
	}
	return out, nil
}

// Collect asks the backend to run a collection pass. The response body is
// ignored.
func (c *Client) Collect(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/collect", nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// MergeEvents concatenates feeds and sorts them newest first. Events whose
// timestamps cannot be parsed sort last, in their original order.
func MergeEvents(feeds ...[]Event) []Event {
	var out []Event
	for _, f := range feeds {
		out = append(out, f...)
	}
	if out == nil {
		return []Event{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().After(out[j].Time())
	})
	return out
}

func (c *Client) events(ctx context.Context, path string, limit int) ([]Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []Event
	if err := c.getJSON(ctx, path, q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &FetchError{Endpoint: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	req.Header.Set(SkipWarningHeader, "true")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &FetchError{
			Endpoint: path,
			Err:      fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}
	return resp, nil
}
