package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/logger"
	"github.com/clivefinesse/jobtracker/pkg/response"
)

// Recovery converts panics into the standard 500 envelope and logs the cause.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.Any("cause", r),
				)
				response.Error(c, errors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}
