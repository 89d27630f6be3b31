package middleware

import (
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CORSMiddleware configures CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Actor-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ActorMiddleware resolves the X-Actor-ID header into the admin identity that
// approval and reversal operations are attributed to. Authentication itself
// happens upstream; this only carries the attribution through.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-Actor-ID")
		if header == "" {
			utils.BadRequestResponse(c, "Missing X-Actor-ID header")
			c.Abort()
			return
		}

		actorID, err := primitive.ObjectIDFromHex(header)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid X-Actor-ID header")
			c.Abort()
			return
		}

		c.Set("actor_id", actorID)
		c.Next()
	}
}

// RequestLoggingMiddleware logs each request with its latency and status
func RequestLoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		log.WithFields(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString("request_id"),
		}).Info("Request handled")
	}
}
