package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/utils"
)

func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := map[string]struct{}{}
	for _, a := range allowed {
		a = strings.TrimSpace(strings.ToLower(a))
		if a != "" {
			allow[a] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		v, ok := c.Get("role")
		role, _ := v.(string)
		role = strings.ToLower(strings.TrimSpace(role))

		if _, allowed := allow[role]; !ok || !allowed {
			abort(c, http.StatusForbidden, utils.CodeForbidden, "role "+strconv.Quote(role)+" may not do this")
			return
		}

		c.Next()
	}
}

// RequireEditor guards knowledge-base writes. Viewers can only read.
func RequireEditor() gin.HandlerFunc { return RequireRole(DefaultRole, "owner", "admin") }

