package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/model"
	"github.com/aeolive/competitor-cli/internal/store"
)

type stubDiscoverer struct {
	mu      sync.Mutex
	domains []string
}

func (s *stubDiscoverer) Discover(_ context.Context, domain string) *model.DiscoveryResult {
	s.mu.Lock()
	s.domains = append(s.domains, domain)
	s.mu.Unlock()

	sim := 0.9
	return &model.DiscoveryResult{
		Domain:         domain,
		Status:         model.DiscoveryComplete,
		Classification: model.Classification{Industry: "Pest Control", Score: 20},
		Source:         model.CompetitorSourceCatalog,
		Competitors: []model.CompetitorRecord{
			{Domain: "orkin.com", Name: "Orkin", Similarity: &sim},
		},
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, withStore bool, opts Options) (http.Handler, *stubDiscoverer) {
	t.Helper()
	d := &stubDiscoverer{}
	opts.Catalog = catalog.Default()
	opts.Discoverer = d
	if withStore {
		st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() }) //nolint:errcheck
		require.NoError(t, st.Migrate(context.Background()))
		opts.Store = st
	}
	return New(opts).Handler(), d
}

func do(h http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	w := do(h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestDiscover_OK(t *testing.T) {
	h, d := newTestServer(t, false, Options{})
	w := do(h, http.MethodPost, "/v1/discover", `{"domain":"  bugbusters.com "}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[DiscoverResponse](t, w)
	require.Len(t, resp.Competitors, 1)
	assert.Equal(t, "orkin.com", resp.Competitors[0].Domain)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.DiscoveryComplete, resp.Result.Status)
	assert.Empty(t, resp.RunID)
	assert.Equal(t, []string{"bugbusters.com"}, d.domains)
}

func TestDiscover_RecordsRun(t *testing.T) {
	h, _ := newTestServer(t, true, Options{})

	w := do(h, http.MethodPost, "/v1/discover", `{"domain":"bugbusters.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[DiscoverResponse](t, w)
	require.NotEmpty(t, resp.RunID)

	w = do(h, http.MethodGet, "/v1/runs/"+resp.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	run := decode[model.Run](t, w)
	assert.Equal(t, "bugbusters.com", run.Domain)
	assert.Equal(t, "Pest Control", run.Industry)

	w = do(h, http.MethodGet, "/v1/runs?status=complete&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]model.Run](t, w)
	assert.Len(t, list["runs"], 1)

	w = do(h, http.MethodGet, "/v1/runs?status=failed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}

func TestDiscover_BadRequests(t *testing.T) {
	h, d := newTestServer(t, false, Options{RateLimitBurst: 100, RateLimitRPS: 100})

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"domain":`, "invalid request body"},
		{"unknown field", `{"domain":"a.com","extra":1}`, "invalid request body"},
		{"two objects", `{"domain":"a.com"}{"domain":"b.com"}`, "invalid request body"},
		{"missing domain", `{}`, "domain failed required"},
		{"blank domain", `{"domain":"   "}`, "domain failed required"},
		{"too long", `{"domain":"` + strings.Repeat("a", 254) + `"}`, "domain failed max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, "/v1/discover", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, decode[map[string]string](t, w)["error"])
		})
	}
	assert.Empty(t, d.domains)
}

func TestDiscover_RateLimitedPerClient(t *testing.T) {
	h, _ := newTestServer(t, false, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})
	body := `{"domain":"bugbusters.com"}`

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body).Code)

	w := do(h, http.MethodPost, "/v1/discover", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	other := func(r *http.Request) { r.RemoteAddr = "203.0.113.9:4321" }
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body, other).Code)

	// Read endpoints are not limited.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/industries", "").Code)
}

func TestDiscover_ForwardedHeadersIgnoredByDefault(t *testing.T) {
	h, _ := newTestServer(t, false, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})
	body := `{"domain":"bugbusters.com"}`

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body).Code)
	for i := 0; i < 3; i++ {
		spoof := func(r *http.Request) { r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1)) }
		assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/v1/discover", body, spoof).Code)
	}
}

func TestDiscover_TrustedProxyHeaders(t *testing.T) {
	h, _ := newTestServer(t, false, Options{RateLimitRPS: 0.001, RateLimitBurst: 1, TrustProxyHeaders: true})
	body := `{"domain":"bugbusters.com"}`

	first := func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.1") }
	second := func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.2") }

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body, first).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/v1/discover", body, first).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/discover", body, second).Code)
}

func TestIndustries(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	w := do(h, http.MethodGet, "/v1/industries", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		DefaultIndustry string         `json:"default_industry"`
		Industries      []IndustryInfo `json:"industries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "General Business", resp.DefaultIndustry)
	assert.Len(t, resp.Industries, len(catalog.Default().Industries()))

	byName := make(map[string]IndustryInfo)
	for _, ind := range resp.Industries {
		byName[ind.Name] = ind
	}
	assert.Equal(t, 3, byName[catalog.HVACIndustry].Competitors)
	assert.Equal(t, 3, byName["Pest Control"].Competitors)
	assert.Equal(t, 0, byName["Technology & SaaS"].Competitors)
}

func TestRuns_JournalDisabled(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})

	w := do(h, http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "run journal disabled", decode[map[string]string](t, w)["error"])

	w = do(h, http.MethodGet, "/v1/runs/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuns_NotFoundAndBadParams(t *testing.T) {
	h, _ := newTestServer(t, true, Options{})

	w := do(h, http.MethodGet, "/v1/runs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "run not found", decode[map[string]string](t, w)["error"])

	w = do(h, http.MethodGet, "/v1/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/v1/runs?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, false, Options{AllowedOrigins: []string{"https://aeo.live"}})

	w := do(h, http.MethodOptions, "/v1/discover", "", func(r *http.Request) {
		r.Header.Set("Origin", "https://aeo.live")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	})
	assert.Equal(t, "https://aeo.live", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(h, http.MethodGet, "/health", "", func(r *http.Request) {
		r.Header.Set("Origin", "https://evil.example")
	})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	w := do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientLimiter_SweepsIdleClients(t *testing.T) {
	l := newClientLimiter(1, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	assert.Equal(t, 2, l.size())

	now = now.Add(2 * time.Minute)
	assert.True(t, l.allow("c"))
	assert.Equal(t, 1, l.size(), "a and b were idle past the ttl")

	assert.True(t, l.allow("a"), "forgotten client starts with a full bucket")
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", clientKey(r))

	r.RemoteAddr = "198.51.100.7"
	assert.Equal(t, "198.51.100.7", clientKey(r))
}
