package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/errs"
	grpcclient "messaging-service/internal/grpc"
)

// AuthMiddleware validates the Authorization header using the
// auth-service credential verifier.
func AuthMiddleware(verifier grpcclient.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization", "code": errs.CodeUnauthenticated})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header", "code": errs.CodeUnauthenticated})
			return
		}

		userID, err := verifier.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": errs.CodeUnauthenticated})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
