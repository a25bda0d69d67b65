package server

import (
	"errors"
	"net/http"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/gin-gonic/gin"
)

type errorPayload struct {
	Type    string                  `json:"type"`
	Code    string                  `json:"code,omitempty"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = apperror.New(apperror.KindUnauthorized, "unauthorized")
	ErrNotFound       = apperror.NotFound("not_found")
	ErrInvalidRequest = apperror.Validation("invalid_request")
	ErrRateLimited    = apperror.New(apperror.KindRateLimited, "rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &validation.Errors{
		Fields: []validation.FieldError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// kindStatus is the HTTP status of each error kind.
var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:    http.StatusBadRequest,
	apperror.KindNotFound:      http.StatusNotFound,
	apperror.KindInvalidStatus: http.StatusUnprocessableEntity,
	apperror.KindConflict:      http.StatusConflict,
	apperror.KindStorage:       http.StatusServiceUnavailable,
	apperror.KindForbidden:     http.StatusForbidden,
	apperror.KindUnauthorized:  http.StatusUnauthorized,
	apperror.KindRateLimited:   http.StatusTooManyRequests,
	apperror.KindRecallCascade: http.StatusInternalServerError,
}

var kindMessage = map[apperror.Kind]string{
	apperror.KindValidation:    "validation error",
	apperror.KindNotFound:      "not found",
	apperror.KindInvalidStatus: "invalid status",
	apperror.KindConflict:      "conflict",
	apperror.KindStorage:       "service unavailable",
	apperror.KindForbidden:     "forbidden",
	apperror.KindUnauthorized:  "unauthorized",
	apperror.KindRateLimited:   "too many requests",
	apperror.KindRecallCascade: "recall incomplete",
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErr *validation.Errors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    string(apperror.KindValidation),
			Code:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Fields,
		}
	}

	if errors.Is(err, blob.ErrNotFound) {
		return http.StatusNotFound, errorPayload{
			Type:    string(apperror.KindNotFound),
			Code:    "blob_not_found",
			Message: "not found",
		}
	}

	kind, ok := apperror.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
	status, known := kindStatus[kind]
	if !known {
		status = http.StatusInternalServerError
	}
	payload := errorPayload{
		Type:    string(kind),
		Code:    apperror.CodeOf(err),
		Message: kindMessage[kind],
	}
	if kind == apperror.KindValidation {
		payload.Errors = []validation.FieldError{{
			Field:   "request",
			Code:    payload.Code,
			Message: "invalid value",
		}}
	}
	return status, payload
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Code
}
