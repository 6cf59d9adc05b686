package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// CSRFHeader carries the anti-forgery token on deletions.
const CSRFHeader = "X-CSRFToken"

const maxBodyBytes = 8 << 20

// Client talks to the ledger server. It satisfies ledger.Deleter and ledger.TokenSource.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Row is one dashboard row as served by GET /api/transactions.
type Row struct {
	ID      string `json:"id"`
	Details string `json:"details"`
}

// Result is the body of mutation responses.
type Result struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Row     *Row   `json:"row,omitempty"`
}

// AddRequest is a new transaction. Amounts are decimal strings; empty means zero.
type AddRequest struct {
	Name           string `json:"name"`
	Comment        string `json:"comment,omitempty"`
	AmountReceived string `json:"amount_received,omitempty"`
	AmountPaid     string `json:"amount_paid,omitempty"`
}

// Filters lists the months (YYYY-MM, ascending) and years (descending) present.
type Filters struct {
	Months []string `json:"months"`
	Years  []int    `json:"years"`
}

// DeleteTransaction issues DELETE /delete/{id}/ with the anti-forgery token.
// A transport failure or an unreadable response yields *ledger.RequestError; an
// explicit refusal yields *ledger.ServerRejection carrying the server's reason.
func (c *Client) DeleteTransaction(ctx context.Context, id, token string) error {
	endpoint := c.baseURL + "/delete/" + url.PathEscape(id) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return &ledger.RequestError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(CSRFHeader, token)

	status, body, err := c.do(req)
	if err != nil {
		return &ledger.RequestError{Err: err}
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		if !is2xx(status) {
			return &ledger.RequestError{Err: fmt.Errorf("delete %s: status %d", id, status)}
		}
		return &ledger.RequestError{Err: fmt.Errorf("delete %s: malformed response: %w", id, err)}
	}

	if is2xx(status) && res.Success != nil && *res.Success {
		c.log.Info().Str("transaction_id", id).Msg("Server confirmed deletion")
		return nil
	}
	if res.Success == nil && res.Error == "" {
		if is2xx(status) {
			return &ledger.RequestError{Err: fmt.Errorf("delete %s: malformed response: missing success", id)}
		}
		return &ledger.RequestError{Err: fmt.Errorf("delete %s: status %d", id, status)}
	}

	c.log.Warn().
		Str("transaction_id", id).
		Int("status", status).
		Str("reason", res.Error).
		Msg("Server rejected deletion")
	return &ledger.ServerRejection{Reason: res.Error, Status: status}
}

// Token fetches a fresh anti-forgery token from GET /api/csrf.
func (c *Client) Token(ctx context.Context) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.getJSON(ctx, "/api/csrf", nil, &body); err != nil {
		return "", fmt.Errorf("Token: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("Token: empty token in response")
	}
	return body.Token, nil
}

// FetchRows returns the data blob of every row, newest first.
func (c *Client) FetchRows(ctx context.Context) ([][]byte, error) {
	var body struct {
		Rows []Row `json:"rows"`
	}
	if err := c.getJSON(ctx, "/api/transactions", nil, &body); err != nil {
		return nil, fmt.Errorf("FetchRows: %w", err)
	}
	blobs := make([][]byte, 0, len(body.Rows))
	for _, row := range body.Rows {
		blobs = append(blobs, []byte(row.Details))
	}
	return blobs, nil
}

// Filters fetches the month and year options.
func (c *Client) Filters(ctx context.Context) (Filters, error) {
	var f Filters
	if err := c.getJSON(ctx, "/api/filters", nil, &f); err != nil {
		return Filters{}, fmt.Errorf("Filters: %w", err)
	}
	return f, nil
}

// AddTransaction posts a new transaction and returns its row.
// Validation failures come back as *ledger.ServerRejection.
func (c *Client) AddTransaction(ctx context.Context, in AddRequest) (Row, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Row{}, fmt.Errorf("AddTransaction: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transactions", bytes.NewReader(payload))
	if err != nil {
		return Row{}, fmt.Errorf("AddTransaction: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return Row{}, &ledger.RequestError{Err: err}
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Row{}, &ledger.RequestError{Err: fmt.Errorf("add: status %d: malformed response: %w", status, err)}
	}
	if !is2xx(status) || res.Success == nil || !*res.Success || res.Row == nil {
		return Row{}, &ledger.ServerRejection{Reason: res.Error, Status: status}
	}
	return *res.Row, nil
}

// Report downloads the server-rendered report. format is "html" or "text".
func (c *Client) Report(ctx context.Context, month, name, format string) ([]byte, error) {
	q := url.Values{}
	if month != "" {
		q.Set("month", month)
	}
	if name != "" {
		q.Set("name", name)
	}
	if format != "" {
		q.Set("format", format)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/report?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("Report: build request: %w", err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	if !is2xx(status) {
		return nil, fmt.Errorf("Report: %w", statusError(status, body))
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if !is2xx(status) {
		return statusError(status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, body, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

func statusError(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("status %d: %s", status, e.Error)
	}
	return fmt.Errorf("status %d", status)
}

var (
	_ ledger.Deleter     = (*Client)(nil)
	_ ledger.TokenSource = (*Client)(nil)
)
