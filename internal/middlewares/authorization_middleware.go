package middlewares

import (
	"bookschema/internal/responses"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextSubject); !exists {
			responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
			return
		}
		if c.GetString(ContextRole) != role {
			responses.Fail(c, http.StatusForbidden, nil, "Access denied. "+role+" privileges required.")
			return
		}
		c.Next()
	}
}
