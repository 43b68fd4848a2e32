package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/authorization"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
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
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var argErr *energydomain.ArgumentError
	if errors.As(err, &argErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: argErr.Field, Code: argErr.Code, Message: validationErrorMessage(argErr.Code)},
			},
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, accountdomain.ErrInvalidCredentials),
		errors.Is(err, accountdomain.ErrInvalidSession),
		errors.Is(err, accountdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code attached to request
// logs. Storage faults keep their operation so they can be told apart.
func classifyErrorForLog(err error) (string, string) {
	var storageErr *energydomain.StorageError
	if errors.As(err, &storageErr) {
		return "storage_error", storageErr.Op
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type != "internal_error" {
		code = err.Error()
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	case isAccountValidationError(err),
		isRoomValidationError(err),
		isDeviceValidationError(err),
		isUsageValidationError(err),
		isAssignmentValidationError(err):
		return true
	default:
		return false
	}
}

func isAccountValidationError(err error) bool {
	switch {
	case errors.Is(err, accountdomain.ErrInvalidID),
		errors.Is(err, accountdomain.ErrInvalidUsername),
		errors.Is(err, accountdomain.ErrInvalidPassword),
		errors.Is(err, accountdomain.ErrInvalidEmail),
		errors.Is(err, accountdomain.ErrInvalidRole):
		return true
	default:
		return false
	}
}

func isRoomValidationError(err error) bool {
	switch {
	case errors.Is(err, roomdomain.ErrInvalidID),
		errors.Is(err, roomdomain.ErrInvalidRoomNumber),
		errors.Is(err, roomdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isDeviceValidationError(err error) bool {
	switch {
	case errors.Is(err, devicedomain.ErrInvalidID),
		errors.Is(err, devicedomain.ErrInvalidRoomID),
		errors.Is(err, devicedomain.ErrInvalidType),
		errors.Is(err, devicedomain.ErrInvalidName),
		errors.Is(err, devicedomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isUsageValidationError(err error) bool {
	switch {
	case errors.Is(err, usagedomain.ErrInvalidDevice),
		errors.Is(err, usagedomain.ErrInvalidRoom),
		errors.Is(err, usagedomain.ErrInvalidEnergy),
		errors.Is(err, usagedomain.ErrInvalidRecordedAt),
		errors.Is(err, usagedomain.ErrInvalidCount):
		return true
	default:
		return false
	}
}

func isAssignmentValidationError(err error) bool {
	return errors.Is(err, assignmentdomain.ErrInvalidUser) ||
		errors.Is(err, assignmentdomain.ErrInvalidRoom)
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, accountdomain.ErrUserExists),
		errors.Is(err, roomdomain.ErrAlreadyExists),
		errors.Is(err, assignmentdomain.ErrRoomAtCapacity),
		errors.Is(err, assignmentdomain.ErrAssignmentBusy):
		return true
	default:
		return false
	}
}

// conflictMessage keeps the capacity message clients match on.
func conflictMessage(err error) string {
	switch {
	case errors.Is(err, assignmentdomain.ErrRoomAtCapacity):
		return assignmentdomain.ErrRoomAtCapacity.Error()
	case errors.Is(err, accountdomain.ErrUserExists):
		return "username already exists"
	case errors.Is(err, roomdomain.ErrAlreadyExists):
		return "room number already exists"
	case errors.Is(err, assignmentdomain.ErrAssignmentBusy):
		return "another assignment for this room is in progress"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, energydomain.ErrNotFound),
		errors.Is(err, roomdomain.ErrNotFound),
		errors.Is(err, devicedomain.ErrNotFound),
		errors.Is(err, devicedomain.ErrRoomNotFound),
		errors.Is(err, usagedomain.ErrDeviceNotFound),
		errors.Is(err, usagedomain.ErrDeviceNotInRoom),
		errors.Is(err, usagedomain.ErrTestDataDisabled),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, assignmentdomain.ErrUserNotFound),
		errors.Is(err, assignmentdomain.ErrRoomNotFound),
		errors.Is(err, assignmentdomain.ErrNotAssigned),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_period":
		return "period must be day, month or year"
	case "invalid_date":
		return "date must be YYYY-MM-DD"
	default:
		return "invalid value"
	}
}
