package middleware

import (
	"errors"
	"net/http"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached to the context with c.Error.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var be errutil.BaseError
		if errors.As(last.Err, &be) {
			status := be.Code.HTTPStatus()
			if status >= http.StatusInternalServerError {
				logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(last.Err))
			}
			c.JSON(status, be.JSON())
			return
		}

		logger.FromContext(c.Request.Context()).Error("unhandled error", zap.Error(last.Err))
		c.JSON(http.StatusInternalServerError, errutil.BaseError{
			Code:    errutil.StatusInternal,
			Message: "internal error",
		}.JSON())
	}
}
