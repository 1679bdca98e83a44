package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/model"
)

const (
	actionRegister = "registerGAE"
	actionStats    = "gaeStats"
)

// LookupError wraps any failure of a stats lookup: transport errors,
// non-success status, or an undecodable body. A lookup never yields
// partially populated stats.
type LookupError struct {
	Code string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ledger: lookup %s: %v", e.Code, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client is a thin wrapper over the remote ledger's shared endpoint.
// Writes are best-effort; reads are awaited.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a ledger client against endpoint with a per-request
// timeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger,
	}
}

// Record sends one issuance event. The response body is opaque and never
// interpreted. Failures are logged here and reported to the caller only
// so it can classify the outcome; they carry no other consequence.
func (c *Client) Record(ctx context.Context, ev model.LedgerEvent) error {
	ev.Action = actionRegister
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ledger: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ledger: build record request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("ledger write failed",
			zap.String("coupon_code", ev.CouponCode),
			zap.Error(err),
		)
		return fmt.Errorf("ledger: record: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("ledger write rejected",
			zap.String("coupon_code", ev.CouponCode),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("ledger: record: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Lookup fetches aggregated stats for code. Fields absent from the
// response decode to zero; any transport or decode failure surfaces as a
// *LookupError instead.
func (c *Client) Lookup(ctx context.Context, code string) (model.CandidateStats, error) {
	var stats model.CandidateStats

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return stats, &LookupError{Code: code, Err: err}
	}
	q := u.Query()
	q.Set("action", actionStats)
	q.Set("couponCode", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return stats, &LookupError{Code: code, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return stats, &LookupError{Code: code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return stats, &LookupError{Code: code, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return model.CandidateStats{}, &LookupError{Code: code, Err: fmt.Errorf("decode response: %w", err)}
	}
	return stats, nil
}
