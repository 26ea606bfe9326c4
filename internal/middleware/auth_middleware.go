package middleware

import (
	"context"
	"strings"

	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthRequired verifies the bearer token issued by the auth backend and
// puts the user ID on the gin and request contexts. Websocket clients
// cannot set headers, so a token query parameter is accepted too.
func AuthRequired(secret, issuer string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret, issuer)
		if err != nil {
			log.WithError(err).WithRequestID(c.GetString("request_id")).Debug("Rejected token")
			utils.UnauthorizedResponse(c, "Invalid token")
			return
		}

		userID := claims.User()
		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.UserIDKey, userID))

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		token := strings.TrimPrefix(h, "Bearer ")
		if token == h {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}
