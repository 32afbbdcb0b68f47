package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/quota"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	"gorm.io/gorm"
)

// Machine-readable error codes surfaced to callers.
const (
	CodeInvalidArgument   = "invalid-argument"
	CodeNotFound          = "not-found"
	CodePermissionDenied  = "permission-denied"
	CodeResourceExhausted = "resource-exhausted"
	CodeInternal          = "internal"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

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

// mapError normalizes an error to its wire status and payload. Quota and
// permission failures keep their semantic codes through every layer; anything
// else collapses to a generic internal error so downstream details never
// leak to the client.
func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, stylistdomain.ErrInvalidArgument), errors.Is(err, ErrInvalidRequest):
		message := "invalid request"
		var vErr *stylistdomain.ValidationError
		if errors.As(err, &vErr) {
			message = vErr.Message
		}
		return http.StatusBadRequest, errorPayload{Code: CodeInvalidArgument, Message: message}

	case errors.Is(err, userrecorddomain.ErrNotFound),
		errors.Is(err, entitlementdomain.ErrProfileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Code: CodeNotFound, Message: "user not found"}

	case errors.Is(err, userrecorddomain.ErrPermissionDenied),
		errors.Is(err, entitlementdomain.ErrUpstreamAuth):
		return http.StatusForbidden, errorPayload{
			Code:    CodePermissionDenied,
			Message: "user identity could not be verified, please sign in again",
		}

	case errors.Is(err, quota.ErrExhausted):
		message := "not enough credits remaining for this operation"
		var exhausted *quota.ExhaustedError
		if errors.As(err, &exhausted) {
			message = exhausted.Error()
		}
		return http.StatusTooManyRequests, errorPayload{Code: CodeResourceExhausted, Message: message}

	default:
		return http.StatusInternalServerError, errorPayload{
			Code:    CodeInternal,
			Message: "something went wrong, please try again",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	errorType := "internal_error"
	switch {
	case status == http.StatusBadRequest:
		errorType = "validation_error"
	case status == http.StatusNotFound:
		errorType = "not_found"
	case status == http.StatusForbidden:
		errorType = "permission_denied"
	case status == http.StatusTooManyRequests:
		errorType = "quota_exhausted"
	}
	return errorType, payload.Code
}
