package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID, echoed back in the
// X-Request-ID header and in the response metadata. A caller-supplied
// X-Request-ID is kept so check-in retries can be correlated across
// attempts.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
