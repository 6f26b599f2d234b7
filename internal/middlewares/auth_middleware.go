package middlewares

import (
	"bookschema/internal/responses"
	"bookschema/internal/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// Authenticate verifies a "Bearer <token>" header signed with secret and
// stores the subject and role in the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			responses.Fail(c, http.StatusUnauthorized, nil, "Missing Authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			responses.Fail(c, http.StatusUnauthorized, nil, "Invalid Authorization format")
			return
		}

		claims, err := utils.VerifyJWT(parts[1], secret)
		if err != nil {
			responses.Fail(c, http.StatusUnauthorized, nil, "Invalid or expired token")
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
