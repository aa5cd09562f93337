package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

func testCacheSetup(t *testing.T) (config.CacheConfig, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
	return cfg, rdb, mr
}

func TestCacheMissThenHit(t *testing.T) {
	cfg, rdb, _ := testCacheSetup(t)

	calls := 0
	e := echo.New()
	e.GET("/v1/slots", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"11:00"}})
	}, NewRedisCache(cfg, rdb))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/slots", nil))
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first request: code=%d cache=%q", first.Code, first.Header().Get("X-Cache"))
	}

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/slots", nil))
	if second.Code != http.StatusOK || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second request: code=%d cache=%q", second.Code, second.Header().Get("X-Cache"))
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestCacheDistinguishesQueries(t *testing.T) {
	cfg, rdb, _ := testCacheSetup(t)

	e := echo.New()
	e.GET("/v1/availability", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"guests": c.QueryParam("guests")})
	}, NewRedisCache(cfg, rdb))

	for _, q := range []string{"guests=2", "guests=4"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/availability?"+q, nil))
		if rec.Header().Get("X-Cache") != "MISS" {
			t.Fatalf("query %q: want MISS, got %q", q, rec.Header().Get("X-Cache"))
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/availability?guests=4", nil))
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("repeat query: want HIT, got %q", rec.Header().Get("X-Cache"))
	}
	if !strings.Contains(rec.Body.String(), `"4"`) {
		t.Fatalf("hit returned wrong body: %s", rec.Body.String())
	}
}

// A credentialed request must never populate the shared cache: a later
// anonymous caller of the same route has to face JWTAuth, not a replay
// of someone's private data.  The cache is wired globally here, in
// front of the auth group, to prove the ordering stays safe even when
// misregistered.
func TestCacheNeverServesPrivateResponses(t *testing.T) {
	cfg, rdb, mr := testCacheSetup(t)
	const secret = "test-secret"

	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	g := e.Group("/v1")
	g.Use(JWTAuth(secret))
	g.GET("/my-reservations", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"ana private booking"}})
	})

	tok, err := utils.NewAccessToken(secret, 10, "CUSTOMER", 15)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	authed := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/my-reservations", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	e.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Fatalf("authenticated request failed: %d %s", authed.Code, authed.Body.String())
	}
	if got := authed.Header().Get("X-Cache"); got != "" {
		t.Fatalf("credentialed request touched the cache: X-Cache=%q", got)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("credentialed response was stored: keys=%v", keys)
	}

	anon := httptest.NewRecorder()
	e.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/v1/my-reservations", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request got %d, want 401", anon.Code)
	}
	if strings.Contains(anon.Body.String(), "ana private booking") {
		t.Fatalf("private body leaked to anonymous caller: %s", anon.Body.String())
	}
}

func TestCacheSkipsNon200(t *testing.T) {
	cfg, rdb, mr := testCacheSetup(t)

	e := echo.New()
	e.GET("/v1/slots", func(c echo.Context) error {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "down"})
	}, NewRedisCache(cfg, rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/slots", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("error response was stored: keys=%v", keys)
	}
}
