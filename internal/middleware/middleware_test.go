package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(Auth(testSecret))
	handlers := []gin.HandlerFunc{}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := SurveyID(c)
		c.JSON(http.StatusOK, gin.H{"survey": id, "subject": Subject(c)})
	})
	r.GET("/private", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, 7, RoleAdmin, "alice", time.Hour)
	require.NoError(t, err)

	rec := get(protectedRouter(), token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"survey":7,"subject":"alice"}`, rec.Body.String())
}

func TestAuthRejectsBadTokens(t *testing.T) {
	expired, err := IssueToken(testSecret, 7, RoleAdmin, "alice", -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("other", 7, RoleAdmin, "alice", time.Hour)
	require.NoError(t, err)
	noSurvey, err := IssueToken(testSecret, 0, RoleAdmin, "alice", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SurveyID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":      "",
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no survey":    noSurvey,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			rec := get(protectedRouter(), token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	researcher, err := IssueToken(testSecret, 7, RoleResearcher, "bob", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(protectedRouter(RoleAdmin), researcher).Code)
	assert.Equal(t, http.StatusOK, get(protectedRouter(RoleAdmin, RoleResearcher), researcher).Code)
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimitMiddlewareKeysBySurvey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(Auth(testSecret))
	r.GET("/private", RateLimit(NewRateLimiter(ctx, 1, time.Minute), BySurvey), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first, err := IssueToken(testSecret, 1, RoleAdmin, "a", time.Hour)
	require.NoError(t, err)
	second, err := IssueToken(testSecret, 2, RoleAdmin, "b", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, first).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, first).Code)
	assert.Equal(t, http.StatusOK, get(r, second).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/private", RateLimit(NewRateLimiter(context.Background(), 0, time.Minute), BySurvey), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Logger())
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusTeapot, get(r, "").Code)
}
