package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/holohaven-api/internal/service"
)

const secret = "test-secret"

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "exp": exp.Unix(), "iat": time.Now().Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

type adminSet map[uuid.UUID]bool

func (a adminSet) RequireAdmin(_ context.Context, id uuid.UUID) error {
	if a[id] {
		return nil
	}
	return service.ErrAdminRequired
}

func newRouter(admins adminSet) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("/", AuthMiddleware(secret))
	authed.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, GetUserID(c).String()) })
	authed.GET("/admin", AdminOnly(admins), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	r := newRouter(adminSet{})

	cases := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+signed(t, userID.String(), time.Now().Add(time.Hour)))
		}, http.StatusOK},
		{"query token", func(req *http.Request) {
			q := req.URL.Query()
			q.Set("access_token", signed(t, userID.String(), time.Now().Add(time.Hour)))
			req.URL.RawQuery = q.Encode()
		}, http.StatusOK},
		{"expired", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+signed(t, userID.String(), time.Now().Add(-time.Hour)))
		}, http.StatusUnauthorized},
		{"bad subject", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+signed(t, "not-a-uuid", time.Now().Add(time.Hour)))
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	admin, user := uuid.New(), uuid.New()
	r := newRouter(adminSet{admin: true})

	for id, want := range map[uuid.UUID]int{admin: http.StatusNoContent, user: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, id.String(), time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
