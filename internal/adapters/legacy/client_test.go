package legacy_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hal_bridge/internal/adapters/legacy"
	"hal_bridge/internal/domain"
)

const postsJSON = `[
  {"id": 11, "date": "2024-03-01T09:30:00", "title": {"rendered": "Перший"}, "content": {"rendered": "<p>Текст</p>"},
   "excerpt": {"rendered": ""},
   "_embedded": {"wp:featuredmedia": [{"id": 1, "source_url": "https://img/1.jpg"}, {"id": 2, "source_url": "https://img/2.jpg"}]}},
  {"date": "2024-03-02T09:30:00", "title": {"rendered": "no id"}},
  {"id": "x-12", "date": "2024-03-03T09:30:00", "title": {"rendered": "Другий"}, "content": {"rendered": ""}, "excerpt": {"rendered": "<p>Коротко</p>"}}
]`

func newClient(t *testing.T, base string, mut func(*legacy.Options)) *legacy.Client {
	t.Helper()
	o := legacy.Options{BaseURL: base, RPS: 100, MaxRetries: 0}
	if mut != nil {
		mut(&o)
	}
	cl, err := legacy.New(o)
	require.NoError(t, err)
	return cl
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := legacy.New(legacy.Options{})
	require.Error(t, err)
}

func TestFetchPosts_DecodesAndValidates(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(postsJSON))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL+"/", nil)
	batch, err := cl.FetchPosts(ctxT(t), 0)
	require.NoError(t, err)

	assert.Equal(t, "_embed=true&per_page=100", gotQuery)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, 1, batch.Rejected)

	first := batch.Items[0]
	assert.Equal(t, domain.ExternalID("11"), first.ID)
	assert.Equal(t, "Перший", first.Title.Rendered)
	assert.Equal(t, "https://img/1.jpg", first.Embedded.FirstMediaURL())
	assert.Equal(t, domain.ExternalID("x-12"), batch.Items[1].ID)
	assert.Nil(t, batch.Items[1].Embedded)
}

func TestFetchListings_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := newClient(t, ts.URL, nil)
	batch, err := cl.FetchListings(ctxT(t), "listing", 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Empty(t, batch.Items)
}

func TestFetchListings_CoercesMeta(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listing", r.URL.Path)
		_, _ = w.Write([]byte(`[
		  {"id": 1, "title": {"rendered": "Кав'ярня"}, "content": {"rendered": "<p>Опис</p>"},
		   "meta": {"city": "Lviv", "phone": ["+380 44"], "latitude": 49.84, "featured": true}},
		  {"id": 2, "title": {"rendered": "Empty meta"}, "content": {"rendered": ""}, "meta": []}
		]`))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, nil)
	batch, err := cl.FetchListings(ctxT(t), "/listing/", 100)
	require.NoError(t, err)
	require.Len(t, batch.Items, 2)

	m := batch.Items[0].Meta
	assert.Equal(t, "Lviv", m["city"])
	assert.Equal(t, "+380 44", m["phone"])
	assert.Equal(t, "49.84", m["latitude"])
	assert.Equal(t, "true", m["featured"])
	assert.NotNil(t, batch.Items[1].Meta)
	assert.Empty(t, batch.Items[1].Meta)
}

func TestFetchPosts_ServerErrorIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, nil)
	batch, err := cl.FetchPosts(ctxT(t), 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Empty(t, batch.Items)
}

func TestFetchPosts_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(postsJSON))
		}
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, func(o *legacy.Options) {
		o.MaxRetries = 3
		o.BackoffBase = time.Millisecond
	})
	batch, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)
	assert.Len(t, batch.Items, 2)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&hits), int32(3))
}

func TestFetchPosts_RetriesExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, func(o *legacy.Options) { o.MaxRetries = 1 })
	_, err := cl.FetchPosts(ctxT(t), 100)
	require.Error(t, err)
	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
}

func TestFetchPosts_Pagination(t *testing.T) {
	pageHandler := func(hits *int32) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(hits, 1)
			n := r.URL.Query().Get("page")
			if n == "" {
				n = "1"
			}
			w.Header().Set("X-WP-TotalPages", "2")
			_, _ = fmt.Fprintf(w, `[{"id": %q, "date": "2024-01-01T00:00:00"}]`, "p"+n)
		}
	}

	t.Run("single page by default", func(t *testing.T) {
		var hits int32
		ts := httptest.NewServer(pageHandler(&hits))
		defer ts.Close()

		batch, err := newClient(t, ts.URL, nil).FetchPosts(ctxT(t), 100)
		require.NoError(t, err)
		require.Len(t, batch.Items, 1)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("follows total pages up to the bound", func(t *testing.T) {
		var hits int32
		ts := httptest.NewServer(pageHandler(&hits))
		defer ts.Close()

		cl := newClient(t, ts.URL, func(o *legacy.Options) { o.MaxPages = 5 })
		batch, err := cl.FetchPosts(ctxT(t), 100)
		require.NoError(t, err)
		require.Len(t, batch.Items, 2)
		assert.Equal(t, domain.ExternalID("p1"), batch.Items[0].ID)
		assert.Equal(t, domain.ExternalID("p2"), batch.Items[1].ID)
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})
}

func TestFetchPosts_BasicAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != "editor" || p != "app-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, func(o *legacy.Options) { o.User, o.Password = "editor", "app-pass" })
	batch, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)
	assert.Empty(t, batch.Items)
}

func TestFetchPosts_MalformedCollection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "rest_no_route"}`))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, nil).FetchPosts(ctxT(t), 100)
	require.Error(t, err)
	assert.Equal(t, domain.KindParse, domain.KindOf(err))
}

// memCache round-trips values through JSON like the redis adapter does.
type memCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func TestFetchPosts_CachesPages(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(postsJSON))
	}))
	defer ts.Close()

	cache := &memCache{}
	cl := newClient(t, ts.URL, func(o *legacy.Options) {
		o.Cache = cache
		o.CacheTTL = time.Minute
	})

	first, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)
	second, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first, second)
}

func TestFetchPosts_UnreadableCacheEntryIsEvicted(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(postsJSON))
	}))
	defer ts.Close()

	key := "legacy:" + ts.URL + "/posts?_embed=true&per_page=100"
	cache := &memCache{store: map[string][]byte{key: []byte("{not json")}}
	cl := newClient(t, ts.URL, func(o *legacy.Options) {
		o.Cache = cache
		o.CacheTTL = time.Minute
	})

	batch, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)
	assert.Len(t, batch.Items, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{key}, cache.deleted)

	again, err := cl.FetchPosts(ctxT(t), 100)
	require.NoError(t, err)
	assert.Equal(t, batch, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "refreshed entry serves the second fetch")
}
