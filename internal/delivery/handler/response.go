package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
)

// Response is the envelope every JSON endpoint answers with. Older client
// builds read "msg", newer ones "message"; both carry the same text.
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Data    any    `json:"data"`
}

// OK sends a success response
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Success: true,
		Message: "success",
		Msg:     "success",
		Data:    data,
	})
}

// Fail sends an error response with the HTTP status mirrored in code
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{
		Code:    status,
		Success: false,
		Message: message,
		Msg:     message,
	})
}

// StatusFor maps application sentinels onto HTTP statuses.
func StatusFor(err error) (int, string) {
	var appErr *common.Error
	msg := http.StatusText(http.StatusInternalServerError)
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, msg
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, msg
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, msg
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, msg
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, msg
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway, msg
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable, msg
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// ErrorHandler renders every error returned by a handler or middleware in the
// envelope. Unexpected errors are logged and answered with a generic 500.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var status int
		var msg string
		var bindErr *echo.BindingError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &bindErr):
			status, msg = http.StatusBadRequest, fmt.Sprintf("invalid value for %s", bindErr.Field)
		case errors.As(err, &httpErr):
			status, msg = httpErr.Code, fmt.Sprint(httpErr.Message)
		default:
			status, msg = StatusFor(err)
		}

		var appErr *common.Error
		if errors.As(err, &appErr) && appErr.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(appErr.RetryAfter.Seconds()))))
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = Fail(c, status, msg)
		}
		if err != nil {
			logger.Warn("Failed to write error response", zap.Error(err))
		}
	}
}
