package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
)

// UserIDKey is the gin context key the user middleware populates.
const UserIDKey = "user_id"

// UserMiddleware resolves the caller from the X-User-ID header set by the
// upstream gateway. Authentication itself happens upstream; this layer only
// validates the shape.
type UserMiddleware struct {
	log *logger.Logger
}

func NewUserMiddleware(baseLog *logger.Logger) *UserMiddleware {
	return &UserMiddleware{log: baseLog.With("middleware", "UserMiddleware")}
}

func (m *UserMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": "missing X-User-ID header", "code": "missing_user"},
			})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": fmt.Sprintf("invalid X-User-ID: %s", raw), "code": "invalid_user"},
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id the middleware stored.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
