package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recommerce-labs/console/internal/apiserver/database"
	"go.uber.org/zap"
)

// RequestRecorder persists one APIRequest row per handled request after
// the response is written. These rows feed the dashboard's 24h call
// count. Recording failures are logged and never fail the request.
func RequestRecorder(db database.Database, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("recorder")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var userID string
		if claims := ClaimsFromContext(c); claims != nil {
			userID = claims.UserID
		}

		r := &database.APIRequest{
			UserID:    userID,
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			Status:    c.Writer.Status(),
			Timestamp: start,
		}
		if r.Path == "" {
			r.Path = c.Request.URL.Path
		}
		if err := db.CreateAPIRequest(context.Background(), r); err != nil {
			logger.Warn("failed to record api request",
				zap.String("path", r.Path),
				zap.Error(err))
		}
	}
}
