package legacy

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy spaces out repeated attempts against the legacy API.
type retryPolicy struct {
	base time.Duration
	max  time.Duration
}

// delay is the wait before the attempt after attempt i. A Retry-After header
// wins when present; otherwise base doubles per attempt with up to half of
// it again as jitter. The result never exceeds max.
func (p retryPolicy) delay(i int, hdr http.Header) time.Duration {
	if d, ok := retryAfter(hdr.Get("Retry-After"), time.Now()); ok {
		return min(d, p.max)
	}
	d := p.base
	for ; i > 0 && d < p.max; i-- {
		d *= 2
	}
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rand.Int64N(half + 1))
	}
	return min(d, p.max)
}

// retryAfter reads a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	return max(at.Sub(now), 0), true
}

// wait blocks for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
