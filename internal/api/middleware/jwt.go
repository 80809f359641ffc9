package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yoockh/barta/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// AuthConfig holds the Supabase JWT settings. Issuer and Audience are optional.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type operatorClaims struct {
	jwt.RegisteredClaims
	Role        string         `json:"role"`         // usually "authenticated" / "anon"
	AppMetadata map[string]any `json:"app_metadata"` // put {"role":"owner"} here
}

// DefaultRole is given to operators whose token carries no app role.
const DefaultRole = "operator"

func abort(c *gin.Context, status int, code utils.Code, msg string) {
	c.AbortWithStatusJSON(status, apiError{Code: code, Message: msg})
}

// bearer reads the token from the Authorization header, or from the
// access_token query parameter for websocket upgrades, which browsers
// cannot send headers with.
func bearer(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if websocketUpgrade(c.Request) {
		return strings.TrimSpace(c.Query("access_token"))
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func JWTAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			abort(c, http.StatusInternalServerError, utils.CodeInternal, "SUPABASE_JWT_SECRET is not set")
			return
		}

		raw := bearer(c)
		if raw == "" {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "missing bearer token")
			return
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		if cfg.Audience != "" {
			opts = append(opts, jwt.WithAudience(cfg.Audience))
		}

		claims := &operatorClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil || tok == nil || !tok.Valid {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "invalid token")
			return
		}

		operatorID := claims.Subject // Supabase user UUID lives in "sub"
		if operatorID == "" {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "missing subject")
			return
		}

		role := DefaultRole
		if v, ok := claims.AppMetadata["role"].(string); ok && v != "" {
			role = v
		}

		c.Set("operator_id", operatorID)
		c.Set("role", role)
		c.Next()
	}
}
