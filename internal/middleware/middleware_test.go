package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

type stubAuth struct {
	claims service.Claims
	err    error
	header string
}

func (s *stubAuth) Authenticate(header string) (service.Claims, error) {
	s.header = header
	return s.claims, s.err
}

func serve(t *testing.T, mw echo.MiddlewareFunc, h echo.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/p", h, mw)
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	var seen service.Claims
	ok := func(c echo.Context) error {
		seen = Caller(c)
		return c.String(http.StatusOK, "ok")
	}

	auth := &stubAuth{claims: service.Claims{ID: "u-1", Email: "a@x.com"}}
	rec := serve(t, JWTAuth(auth), ok, "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer good", auth.header)
	assert.Equal(t, service.Claims{ID: "u-1", Email: "a@x.com"}, seen)

	rec = serve(t, JWTAuth(&stubAuth{err: service.ErrMissingToken}), ok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(t, JWTAuth(&stubAuth{err: service.ErrInvalidToken}), ok, "Bearer bad")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCallerOnPublicRoute(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, service.Claims{}, Caller(c))
	assert.Equal(t, "anon", userID(c))
}

func TestNewTokenBucket_PassThroughWithoutRedis(t *testing.T) {
	log, _ := test.NewNullLogger()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log)
	rec := serve(t, mw, func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/detections", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/detections")
	c.Set(ctxUserID, "u-1")

	cases := map[string]string{
		"ip":            "rl:ip:10.0.0.9",
		"user":          "rl:user:u-1",
		"ip_route":      "rl:ip:10.0.0.9:route:POST /api/detections",
		"ip_user_route": "rl:ip:10.0.0.9:user:u-1:route:POST /api/detections",
		"":              "rl:ip:10.0.0.9:user:u-1:route:POST /api/detections",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		assert.Equal(t, want, got, strategy)
	}
}

func TestParseBucket(t *testing.T) {
	allowed, remaining, retry, ok := parseBucket([]any{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, allowed)
	assert.EqualValues(t, 4, remaining)
	assert.EqualValues(t, 0, retry)

	allowed, _, retry, ok = parseBucket([]any{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	assert.False(t, allowed)
	assert.Equal(t, 2, retryAfterSeconds(retry))

	_, _, _, ok = parseBucket("nope")
	assert.False(t, ok)
}

func TestErrorLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	mw := ErrorLogger(log)

	rec := serve(t, mw, func(c echo.Context) error { return c.NoContent(http.StatusOK) }, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, hook.AllEntries())

	rec = serve(t, mw, func(c echo.Context) error { return c.NoContent(http.StatusBadRequest) }, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	rec = serve(t, mw, func(c echo.Context) error { return errors.New("kaput") }, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, 500, hook.LastEntry().Data["status_code"])
}
