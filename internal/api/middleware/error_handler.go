// Package middleware provides HTTP middleware for Pitlane.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Params      map[string]interface{} `json:"params,omitempty"`
	FieldErrors []apperrors.FieldError `json:"field_errors,omitempty"`
}

func responseOf(err *apperrors.AppError) ErrorResponse {
	return ErrorResponse{
		Code:        err.Code,
		Message:     err.Message,
		Params:      err.Params,
		FieldErrors: err.FieldErrors,
	}
}

// ErrorHandler renders the last error pushed with c.Error once the chain
// returns, unless a handler already wrote a response. Anything that is not
// an AppError becomes an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := GetRequestID(c.Request.Context())

		appErr, ok := apperrors.IsAppError(err)
		if !ok {
			logger.Error("Unhandled request error", zap.String("request_id", requestID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    apperrors.CodeInternal,
				Message: "An internal error occurred",
			})
			return
		}

		fields := []zap.Field{
			zap.String("code", appErr.Code),
			zap.Int("status", appErr.HTTPStatus),
			zap.String("request_id", requestID),
		}
		if appErr.Err != nil {
			fields = append(fields, zap.Error(appErr.Err))
		}
		if apperrors.StatusOf(appErr) >= http.StatusInternalServerError {
			logger.Error(appErr.Message, fields...)
		} else {
			logger.Warn(appErr.Message, fields...)
		}
		c.JSON(appErr.HTTPStatus, responseOf(appErr))
	}
}

// abort renders err immediately, bypassing the remaining chain.
func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, responseOf(err))
}
