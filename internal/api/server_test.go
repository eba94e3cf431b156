package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/catalog"
	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/engine"
	"github.com/rishicodesforfun/menta-question/internal/logging"
	"github.com/rishicodesforfun/menta-question/internal/service"
	"github.com/rishicodesforfun/menta-question/internal/session"
)

// staticConfig serves a fixed configuration
type staticConfig struct {
	cfg *domain.Config
}

func (s *staticConfig) GetConfig() *domain.Config               { return s.cfg }
func (s *staticConfig) GetServerConfig() *domain.ServerConfig   { return &s.cfg.Server }
func (s *staticConfig) GetSessionConfig() *domain.SessionConfig { return &s.cfg.Session }
func (s *staticConfig) Reload() error                           { return nil }
func (s *staticConfig) Validate() error                         { return nil }
func (s *staticConfig) IsProduction() bool                      { return false }
func (s *staticConfig) IsDevelopment() bool                     { return true }

func testConfig() *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: time.Second,
			Mode:            gin.TestMode,
		},
	}
}

func newTestServer(t *testing.T, cfg *domain.Config, withStore bool) *Server {
	t.Helper()
	instruments, err := catalog.Default()
	require.NoError(t, err)
	registry, err := engine.NewRegistry(instruments...)
	require.NoError(t, err)

	var store session.Store
	if withStore {
		mem := session.NewMemoryStore(100, time.Hour)
		t.Cleanup(func() { mem.Close() })
		store = mem
	}
	logger := logging.Discard()
	svc := service.NewScreeningService(logger, registry, store)
	return NewServer(&staticConfig{cfg: cfg}, svc, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.EqualValues(t, 21, body["instruments"])
	components, ok := body["components"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, components, "catalog")
	assert.Contains(t, components, "session_store")
}

func TestInstrumentRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodGet, "/api/v1/instruments", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 21, body["count"])

	w = do(t, s, http.MethodGet, "/api/v1/instruments/phq-9", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "phq-9", body["id"])

	w = do(t, s, http.MethodGet, "/api/v1/instruments/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeUnknownInstrument, decode(t, w)["code"])
}

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"valid", "/api/v1/instruments/gad-7/score", `{"answers":[1,1,1,1,1,1,1]}`, http.StatusOK, ""},
		{"wrong length", "/api/v1/instruments/gad-7/score", `{"answers":[1,1,1]}`, http.StatusUnprocessableEntity, domain.ErrCodeInvalidShape},
		{"empty vector", "/api/v1/instruments/gad-7/score", `{"answers":[]}`, http.StatusUnprocessableEntity, domain.ErrCodeInvalidShape},
		{"out of range", "/api/v1/instruments/gad-7/score", `{"answers":[4,1,1,1,1,1,-1]}`, http.StatusUnprocessableEntity, domain.ErrCodeInvalidRange},
		{"non-integer", "/api/v1/instruments/gad-7/score", `{"answers":[1,1.5,1,1,1,1,1]}`, http.StatusUnprocessableEntity, domain.ErrCodeInvalidRange},
		{"null answer", "/api/v1/instruments/gad-7/score", `{"answers":[1,null,1,1,1,1,1]}`, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"missing answers", "/api/v1/instruments/gad-7/score", `{}`, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"malformed json", "/api/v1/instruments/gad-7/score", `{"answers":`, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"unknown instrument", "/api/v1/instruments/nope/score", `{"answers":[1]}`, http.StatusNotFound, domain.ErrCodeUnknownInstrument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			if tt.code != "" {
				assert.Equal(t, tt.code, body["code"])
				assert.NotEmpty(t, body["request_id"])
			}
		})
	}
}

func TestScoreEndpoint_Result(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodPost, "/api/v1/instruments/gad-7/score", `{"answers":[2,2,2,1,1,1,1]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 10, result.TotalScore)
	assert.Equal(t, "Moderate", result.Band)
	assert.False(t, result.RequiresEscalation)
	require.Len(t, result.EscalationReasons, 1)
	assert.Contains(t, result.EscalationReasons[0], "GAD-7")
	assert.Equal(t, []int{2, 2, 2, 1, 1, 1, 1}, result.RawAnswers)
}

func TestScoreEndpoint_ListsEveryRangeError(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodPost, "/api/v1/instruments/gad-7/score", `{"answers":[4,1,1,1,1,1,-1]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Code   string               `json:"code"`
		Item   int                  `json:"item"`
		Errors []*domain.RangeError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeInvalidRange, resp.Code)
	assert.Equal(t, 1, resp.Item)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, 1, resp.Errors[0].Item)
	assert.Equal(t, 7, resp.Errors[1].Item)
	assert.Equal(t, -1.0, resp.Errors[1].Value)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodPost, "/api/v1/sessions", `{"instrument_id":"phq-4"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id, _ := created["id"].(string)
	require.True(t, strings.HasPrefix(id, "s_"))
	assert.Equal(t, "/api/v1/sessions/"+id, w.Header().Get("Location"))

	w = do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrCodeSessionIncomplete, decode(t, w)["code"])

	w = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/answers", `{"answers":[2,1,null,null]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["completed"])

	w = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/answers", `{"answers":[null,null,0,0]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["completed"])

	w = do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result domain.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.TotalScore)
	assert.Equal(t, "Mild", result.Band)
	assert.Len(t, result.EscalationReasons, 1)

	w = do(t, s, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/answers", `{"answers":[9,null,null,null]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.ErrCodeInvalidRange, decode(t, w)["code"])

	w = do(t, s, http.MethodDelete, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeSessionNotFound, decode(t, w)["code"])
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := do(t, s, http.MethodPost, "/api/v1/sessions", `{"instrument_id":"nope"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeUnknownInstrument, decode(t, w)["code"])

	w = do(t, s, http.MethodPost, "/api/v1/sessions", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPut, "/api/v1/sessions/s_missing/answers", `{"answers":[1,1,1,1]}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeSessionNotFound, decode(t, w)["code"])

	stateless := newTestServer(t, testConfig(), false)
	w = do(t, stateless, http.MethodPost, "/api/v1/sessions", `{"instrument_id":"phq-4"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, domain.ErrCodeStoreUnavailable, decode(t, w)["code"])
}

func TestMiddleware(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	t.Run("security headers", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/health", "")
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		_, err := uuid.Parse(w.Header().Get("X-Correlation-ID"))
		assert.NoError(t, err)
	})

	t.Run("correlation id is echoed", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/instruments/nope", nil)
		req.Header.Set("X-Correlation-ID", id)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, id, w.Header().Get("X-Correlation-ID"))
		assert.Equal(t, id, decode(t, w)["request_id"])
	})

	t.Run("cors preflight", func(t *testing.T) {
		w := do(t, s, http.MethodOptions, "/api/v1/instruments", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown route", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/v2/anything", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, domain.ErrCodeInvalidInput, decode(t, w)["code"])
	})

	t.Run("panic recovery", func(t *testing.T) {
		s.router.GET("/boom", func(*gin.Context) { panic("boom") })
		w := do(t, s, http.MethodGet, "/boom", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, domain.ErrCodeInternalServer, body["code"])
		assert.NotContains(t, w.Body.String(), "boom")
	})
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.5, Burst: 2}
	s := newTestServer(t, cfg, true)

	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, domain.ErrCodeRateLimit, decode(t, w)["code"])
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
