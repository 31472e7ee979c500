package ncbi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/cesargomez89/genofetch/internal/domain"
)

const (
	DefaultUserAgent = "genofetch/1.0 (https://github.com/cesargomez89/genofetch)"
	maxPageSize      = 100
)

// LookupClient resolves a taxon name to candidate genome records. A nil
// slice with a nil error means the catalog confirmed zero matches for the
// name. A non-nil error is a final, retry-exhausted outcome.
type LookupClient interface {
	Lookup(ctx context.Context, name string) ([]domain.GenomeRecord, error)
}

// Client queries the NCBI Datasets genome summary endpoint, restricted to
// annotated assemblies. Every attempt, including retries, first waits on the
// shared rate limiter so the catalog's request budget is never exceeded.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	retryCount int
	retryBase  time.Duration
}

// Options tunes retry and timeout behavior of a Client.
type Options struct {
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryBase  time.Duration
}

// NewClient creates a lookup client sharing the given limiter. The limiter
// must be the single instance used by every concurrent worker of a run.
func NewClient(baseURL string, limiter *rate.Limiter, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount < 1 {
		opts.RetryCount = 1
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		limiter:   limiter,
		apiKey:    opts.APIKey,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		timeout:    opts.Timeout,
		retryCount: opts.RetryCount,
		retryBase:  opts.RetryBase,
	}
}

// transientError marks failures eligible for retry: network errors, 5xx
// responses and rate-limit rejections from the remote side.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Lookup performs one name query against the catalog, retrying transient
// failures with exponential backoff and jitter. Exhausting retries returns
// the last transient cause.
func (c *Client) Lookup(ctx context.Context, name string) ([]domain.GenomeRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("lookup name must not be empty")
	}

	var records []domain.GenomeRecord

	operation := func() error {
		recs, err := c.lookupOnce(ctx, name)
		if err != nil {
			var te *transientError
			if errors.As(err, &te) {
				return err
			}
			return backoff.Permanent(err)
		}
		records = recs
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retryCount-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	return records, nil
}

// lookupOnce issues a single rate-limited request. It classifies the
// response: transient errors are wrapped in transientError, anything else is
// returned as-is.
func (c *Client) lookupOnce(ctx context.Context, name string) ([]domain.GenomeRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/genome/taxon/%s/dataset_report?filters.has_annotation=true&page_size=%d",
		c.baseURL, url.PathEscape(name), maxPageSize)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeReports(resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		// The catalog does not know the taxon at all.
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &transientError{err: fmt.Errorf("catalog returned status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		if msg := readErrorMessage(resp.Body); isUnknownTaxon(msg) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("catalog returned unexpected status %d", resp.StatusCode)
	}
}

func decodeReports(body io.Reader) ([]domain.GenomeRecord, error) {
	var result datasetReportResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Reports) == 0 {
		return nil, nil
	}
	records := make([]domain.GenomeRecord, 0, len(result.Reports))
	for _, r := range result.Reports {
		if r.Accession == "" {
			continue
		}
		records = append(records, r.toDomain())
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

func readErrorMessage(body io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(body).Decode(&er); err != nil {
		return ""
	}
	return er.Error.Message
}

// isUnknownTaxon matches the catalog's unrecognized/inexact taxonomy
// replies, which mean the species is absent rather than the service broken.
func isUnknownTaxon(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not recognized") ||
		strings.Contains(msg, "not exact") ||
		strings.Contains(msg, "no genome data is currently available")
}
