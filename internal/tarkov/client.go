package tarkov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/tarkov-market/internal/logger"
)

const (
	DefaultURL         = "https://api.tarkov.dev/graphql"
	UserAgent          = "tarkov-market/1.0 (github.com/pfrederiksen/tarkov-market)"
	Timeout            = 30 * time.Second
	DefaultHistoryDays = 7
	DefaultDelay       = 100 * time.Millisecond
	DefaultMaxRetries  = 3

	maxSummaryLen = 200
)

// ErrNoData is returned when the API answers without a data payload
var ErrNoData = errors.New("response contained no data")

// StatusError is returned for non-200 responses
type StatusError struct {
	StatusCode int
	Summary    string
}

func (e *StatusError) Error() string {
	if e.Summary == "" {
		return fmt.Sprintf("query failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("query failed with status %d: %s", e.StatusCode, e.Summary)
}

// Temporary reports whether retrying the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// GraphQLError carries the messages of a response that had errors and no data
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// Client queries the tarkov.dev GraphQL API
type Client struct {
	httpClient    *http.Client
	url           string
	lang          string
	gameMode      string
	historyDays   int
	delay         time.Duration
	maxRetries    uint64
	retryInterval time.Duration
	newProgress   func(total int) Progress
}

// Option configures a Client
type Option func(*Client)

// WithURL points the client at a different endpoint
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithLang sets the language names are returned in
func WithLang(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// WithGameMode selects the regular or PvE market
func WithGameMode(mode string) Option {
	return func(c *Client) { c.gameMode = mode }
}

// WithHistoryDays sets how many days of history are requested
func WithHistoryDays(days int) Option {
	return func(c *Client) { c.historyDays = days }
}

// WithRequestDelay sets the pause between consecutive history requests
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries bounds the number of retries per query
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryInterval sets the initial backoff interval
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithProgress replaces the progress reporter used by batch fetches
func WithProgress(fn func(total int) Progress) Option {
	return func(c *Client) { c.newProgress = fn }
}

// New creates a new Client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: Timeout,
		},
		url:           DefaultURL,
		historyDays:   DefaultHistoryDays,
		delay:         DefaultDelay,
		maxRetries:    DefaultMaxRetries,
		retryInterval: 500 * time.Millisecond,
		newProgress:   NewBarProgress,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// RunQuery executes a GraphQL query and decodes its data payload into out.
// Transport failures, 429 and 5xx responses are retried with exponential backoff.
func (c *Client) RunQuery(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	start := time.Now()
	defer func() { logger.RecordTiming("api.query", time.Since(start)) }()

	var data json.RawMessage
	op := func() error {
		logger.IncrCounter("api.requests")
		d, err := c.post(ctx, body)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		data = d
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("api.retries")
		logger.Warn("Retrying query", logger.Fields{
			"url":  c.url,
			"wait": wait.String(),
		})
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.backOff(), ctx), notify); err != nil {
		logger.IncrCounter("api.failures")
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing data: %w", err)
	}
	return nil
}

func (c *Client) backOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, c.maxRetries)
}

// post sends one request and returns the raw data payload
func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Summary:    summarizeBody(resp.Header.Get("Content-Type"), raw),
		}
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	hasData := len(r.Data) > 0 && string(r.Data) != "null"
	if len(r.Errors) > 0 {
		msgs := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			msgs = append(msgs, e.Message)
		}
		if !hasData {
			return nil, &GraphQLError{Messages: msgs}
		}
		logger.Warn("Query returned partial data", logger.Fields{
			"errors": msgs,
		})
	}
	if !hasData {
		return nil, ErrNoData
	}

	return r.Data, nil
}

// transportError wraps failures to reach the API or read its answer
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "sending request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// retryable reports whether err is worth another attempt
func retryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return false
}

// summarizeBody reduces an error body to one short line. HTML error pages
// (Cloudflare and friends) are reduced to their <title>.
func summarizeBody(contentType string, body []byte) string {
	text := string(body)
	if strings.Contains(contentType, "html") || strings.HasPrefix(strings.TrimSpace(text), "<") {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxSummaryLen {
		text = text[:maxSummaryLen] + "..."
	}
	return text
}

func (c *Client) baseVariables() map[string]interface{} {
	vars := make(map[string]interface{})
	if c.lang != "" {
		vars["lang"] = c.lang
	}
	if c.gameMode != "" {
		vars["gameMode"] = c.gameMode
	}
	return vars
}
