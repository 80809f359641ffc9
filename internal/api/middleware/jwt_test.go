package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newEngine(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator_id": c.GetString("operator_id"), "role": c.GetString("role")})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	r := newEngine(AuthConfig{Secret: secret, Issuer: "barta", Audience: "authenticated"})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "iss": "other", "aud": "authenticated", "exp": exp}), http.StatusUnauthorized},
		{"wrong audience", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "iss": "barta", "aud": "anon", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "iss": "barta", "aud": "authenticated", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no subject", "Bearer " + sign(t, jwt.MapClaims{"iss": "barta", "aud": "authenticated", "exp": exp}), http.StatusUnauthorized},
		{"ok", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "iss": "barta", "aud": "authenticated", "exp": exp}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, do(r, req).Code)
		})
	}
}

func TestJWTAuthRejectsOtherAlgorithms(t *testing.T) {
	r := newEngine(AuthConfig{Secret: secret})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestJWTAuthWithoutSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusInternalServerError, do(newEngine(AuthConfig{}), req).Code)
}

func TestAccessTokenQueryOnlyForWebsockets(t *testing.T) {
	r := newEngine(AuthConfig{Secret: secret})
	tok := sign(t, jwt.MapClaims{"sub": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/x?access_token="+tok, nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x?access_token="+tok, nil)
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestRoles(t *testing.T) {
	r := newEngine(AuthConfig{Secret: secret}, RequireEditor())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u1"}))
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator_id":"u1","role":"operator"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u2", "app_metadata": map[string]any{"role": "viewer"}}))
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u3", "app_metadata": map[string]any{"role": "Owner"}}))
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}
