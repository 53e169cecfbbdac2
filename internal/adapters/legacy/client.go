// internal/adapters/legacy/client.go
package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hal_bridge/internal/adapters/observability"
	"hal_bridge/internal/domain"
)

const (
	DefaultPageSize = 100
	maxPageSize     = 100 // the legacy API rejects per_page above 100
	postsEndpoint   = "posts"
)

type Options struct {
	BaseURL    string
	User       string // basic auth (application password); optional
	Password   string
	RPS        int
	Timeout    time.Duration
	MaxRetries int
	// BackoffBase is the first retry delay, doubled per attempt up to
	// BackoffMax. A server Retry-After takes precedence, also capped.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// MaxPages bounds pagination. 1 keeps the single-page contract.
	MaxPages int
	Cache    domain.Cache
	CacheTTL time.Duration
	HTTP     *http.Client
}

type Client struct {
	base       string
	hc         *http.Client
	user, pass string
	rl         *rate.Limiter
	retries    int
	retry      retryPolicy
	maxPages   int
	cache      domain.Cache
	cacheTTL   time.Duration
	validate   *validator.Validate
}

func New(o Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("legacy base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("legacy base URL: %w", err)
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 200 * time.Millisecond
	}
	if o.BackoffMax < o.BackoffBase {
		o.BackoffMax = 50 * o.BackoffBase
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 1
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		base:     base,
		hc:       hc,
		user:     o.User,
		pass:     o.Password,
		rl:       rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		retries:  o.MaxRetries,
		retry:    retryPolicy{base: o.BackoffBase, max: o.BackoffMax},
		maxPages: o.MaxPages,
		cache:    o.Cache,
		cacheTTL: o.CacheTTL,
		validate: validator.New(),
	}, nil
}

// FetchPosts fetches blog posts with embedded media resolved inline.
func (c *Client) FetchPosts(ctx context.Context, pageSize int) (domain.Batch[domain.ExternalPost], error) {
	return fetch[domain.ExternalPost](ctx, c, postsEndpoint, pageSize)
}

// FetchListings fetches records of a custom content type. A type unknown to
// the legacy platform yields domain.ErrNotFound.
func (c *Client) FetchListings(ctx context.Context, customType string, pageSize int) (domain.Batch[domain.ExternalListing], error) {
	customType = strings.Trim(strings.TrimSpace(customType), "/")
	if customType == "" {
		return domain.Batch[domain.ExternalListing]{}, fmt.Errorf("custom type is required")
	}
	return fetch[domain.ExternalListing](ctx, c, customType, pageSize)
}

// ---- Internals ----

type page struct {
	Items      []json.RawMessage `json:"items"`
	TotalPages int               `json:"total_pages"`
}

// fetch walks pages of endpoint up to maxPages. Each record is decoded and
// validated on its own so one malformed record is rejected, not the page.
// Any failure yields an empty batch.
func fetch[T any](ctx context.Context, c *Client, endpoint string, pageSize int) (domain.Batch[T], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var out domain.Batch[T]
	for n := 1; n <= c.maxPages; n++ {
		p, err := c.getPage(ctx, endpoint, c.pageURL(endpoint, pageSize, n))
		if err != nil {
			return domain.Batch[T]{}, err
		}
		for i, raw := range p.Items {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				log.Warn().Err(err).Str("endpoint", endpoint).Int("page", n).Int("index", i).Msg("legacy record rejected: decode")
				out.Rejected++
				continue
			}
			if err := c.validate.Struct(item); err != nil {
				log.Warn().Err(err).Str("endpoint", endpoint).Int("page", n).Int("index", i).Msg("legacy record rejected: validation")
				out.Rejected++
				continue
			}
			out.Items = append(out.Items, item)
		}
		if len(p.Items) == 0 || p.TotalPages <= n {
			break
		}
	}
	return out, nil
}

func (c *Client) pageURL(endpoint string, pageSize, n int) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("_embed", "true")
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	return fmt.Sprintf("%s/%s?%s", c.base, endpoint, q.Encode())
}

func (c *Client) getPage(ctx context.Context, endpoint, u string) (page, error) {
	key := "legacy:" + u
	var p page
	if c.cache != nil && c.cacheTTL > 0 {
		ok, err := c.cache.Get(ctx, key, &p)
		switch {
		case err == nil && ok:
			return p, nil
		case err != nil:
			// an entry that no longer decodes is dropped and refetched
			log.Warn().Err(err).Str("key", key).Msg("legacy page cache entry unreadable")
			if derr := c.cache.Del(ctx, key); derr != nil {
				log.Warn().Err(derr).Str("key", key).Msg("legacy page cache evict failed")
			}
			p = page{}
		}
	}

	body, hdr, err := c.get(ctx, endpoint, u)
	if err != nil {
		return page{}, err
	}
	if err := json.Unmarshal(body, &p.Items); err != nil {
		return page{}, fmt.Errorf("%s: decode collection: %w", endpoint, &domain.ParseError{Field: "collection", Value: endpoint, Err: err})
	}
	p.TotalPages = 1
	if tp, err := strconv.Atoi(hdr.Get("X-WP-TotalPages")); err == nil {
		p.TotalPages = tp
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, p, int(c.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("legacy page cache set failed")
		}
	}
	return p, nil
}

// get performs a GET with client-side rate limiting and retries.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string) ([]byte, http.Header, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, nil, err
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, nil, err
		}
		if c.user != "" {
			req.SetBasicAuth(c.user, c.pass)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hal-bridge/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("legacy", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s: %w: %w", endpoint, domain.ErrNetwork, err)
			if i < c.retries && wait(ctx, c.retry.delay(i, nil)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, lastErr
		}
		observability.ObserveExternal("legacy", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w: read body: %w", endpoint, domain.ErrNetwork, err)
			}
			return bytes.TrimSpace(b), resp.Header, nil

		case http.StatusNotFound:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil, fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			d := c.retry.delay(i, resp.Header)
			resp.Body.Close()
			lastErr = fmt.Errorf("%s: %w", endpoint, &domain.StatusError{Status: resp.StatusCode})
			if i < c.retries && wait(ctx, d) {
				continue
			}
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, nil, fmt.Errorf("%s: %w", endpoint, &domain.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))})
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no attempt made")
	}
	return nil, nil, lastErr
}
