// Package fetch retrieves arXiv pages over HTTP with bounded retry, an
// optional conditional-GET cache and request spacing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/arxivsubj/internal/cache"
)

// ErrCacheMiss is wrapped by RetrievalError when CacheOnly is set and the
// page was never cached.
var ErrCacheMiss = errors.New("not in cache")

// RetrievalError describes a page that could not be obtained. Status is the
// HTTP status when a response arrived, otherwise zero.
type RetrievalError struct {
	URL    string
	Status int
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("retrieve %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Client wraps http.Client and provides timeouts, limited retry on transient
// errors and a minimum spacing between requests.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for page bodies and validators.
	Cache *cache.PageCache
	// BypassCache fetches fresh without conditional headers but still saves
	// the response.
	BypassCache bool
	// CacheOnly serves exclusively from Cache and never touches the network.
	CacheOnly bool

	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MinInterval spaces consecutive requests. Zero disables throttling.
	MinInterval time.Duration
	// ContentTypes lists accepted media type prefixes. Empty means HTML.
	ContentTypes []string

	rateMu  sync.Mutex
	rateLim *rate.Limiter
}

var htmlContentTypes = []string{"text/html", "application/xhtml+xml"}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// SetMinInterval raises the spacing between requests to d. It never lowers
// an interval already in force.
func (c *Client) SetMinInterval(d time.Duration) {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	if d <= c.MinInterval {
		return
	}
	c.MinInterval = d
	if c.rateLim != nil {
		c.rateLim.SetLimit(rate.Every(d))
	}
}

func (c *Client) wait(ctx context.Context) error {
	c.rateMu.Lock()
	if c.MinInterval <= 0 {
		c.rateMu.Unlock()
		return nil
	}
	if c.rateLim == nil {
		c.rateLim = rate.NewLimiter(rate.Every(c.MinInterval), 1)
	}
	lim := c.rateLim
	c.rateMu.Unlock()
	return lim.Wait(ctx)
}

// Get issues a GET with context, user-agent and bounded retry for transient
// errors. Every failure is a *RetrievalError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.CacheOnly {
		return c.fromCache(ctx, rawURL)
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.Meta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, ct, newEtag, newLastMod, status, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if status == http.StatusNotModified && c.Cache != nil {
				cached, cerr := c.Cache.Body(ctx, rawURL)
				if cerr != nil {
					return nil, "", &RetrievalError{URL: rawURL, Status: status, Err: fmt.Errorf("cached body: %w", cerr)}
				}
				if meta, merr := c.Cache.Meta(ctx, rawURL); merr == nil && ct == "" {
					ct = meta.ContentType
				}
				log.Debug().Str("url", rawURL).Msg("not modified; served from cache")
				return cached, ct, nil
			}
			if c.Cache != nil && status == http.StatusOK {
				if err := c.Cache.Put(ctx, rawURL, ct, newEtag, newLastMod, body); err != nil {
					log.Warn().Err(err).Str("url", rawURL).Msg("cache write failed")
				}
			}
			return body, ct, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("transient failure; retrying")
		select {
		case <-ctx.Done():
			return nil, "", &RetrievalError{URL: rawURL, Err: ctx.Err()}
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	var re *RetrievalError
	if errors.As(lastErr, &re) {
		return nil, "", re
	}
	return nil, "", &RetrievalError{URL: rawURL, Err: lastErr}
}

func (c *Client) fromCache(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.Cache == nil {
		return nil, "", &RetrievalError{URL: rawURL, Err: ErrCacheMiss}
	}
	meta, err := c.Cache.Meta(ctx, rawURL)
	if err != nil {
		return nil, "", &RetrievalError{URL: rawURL, Err: ErrCacheMiss}
	}
	body, err := c.Cache.Body(ctx, rawURL)
	if err != nil {
		return nil, "", &RetrievalError{URL: rawURL, Err: ErrCacheMiss}
	}
	return body, meta.ContentType, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) ([]byte, string, string, string, int, error) {
	fail := func(status int, err error) ([]byte, string, string, string, int, error) {
		return nil, "", "", "", status, &RetrievalError{URL: rawURL, Status: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("new request: %w", err))
	}
	if !isHTTPScheme(req.URL) {
		return fail(0, fmt.Errorf("unsupported URL scheme: %q", req.URL.Scheme))
	}
	if err := c.wait(ctx); err != nil {
		return fail(0, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, resp.Header.Get("Content-Type"), resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", http.StatusText(resp.StatusCode)))
	}

	contentType := resp.Header.Get("Content-Type")
	if !c.allowedContentType(contentType) {
		return fail(resp.StatusCode, fmt.Errorf("unsupported content type: %s", contentType))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	return b, contentType, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), resp.StatusCode, nil
}

// isTransient treats 5xx responses and timeouts as retryable.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Status >= 500 && re.Status <= 599
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) allowedContentType(ct string) bool {
	allowed := c.ContentTypes
	if len(allowed) == 0 {
		allowed = htmlContentTypes
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, prefix := range allowed {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}
