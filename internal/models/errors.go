package models

import (
	"fmt"

	"capmatch/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in API responses. Business-rule violations map to 400,
// TRANSIENT_CONFLICT to 409, infrastructure failures to 500.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicateApplication = "DUPLICATE_APPLICATION"
	CodeDuplicateRequest     = "DUPLICATE_REQUEST"
	CodeSelfPartnership      = "SELF_PARTNERSHIP"
	CodeAlreadyPaired        = "ALREADY_PAIRED"
	CodeAlreadyProcessed     = "ALREADY_PROCESSED"
	CodeInvalidState         = "INVALID_STATE"
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeTransientConflict    = "TRANSIENT_CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// AppError represents a custom application error.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewDuplicateApplicationError() *AppError {
	return &AppError{
		Code:    CodeDuplicateApplication,
		Message: "An active application to this supervisor already exists",
	}
}

func NewDuplicateRequestError() *AppError {
	return &AppError{
		Code:    CodeDuplicateRequest,
		Message: "A pending partnership request already exists between these parties",
	}
}

func NewSelfPartnershipError() *AppError {
	return &AppError{
		Code:    CodeSelfPartnership,
		Message: "Cannot send a partnership request to yourself",
	}
}

func NewAlreadyPairedError(message string) *AppError {
	return &AppError{
		Code:    CodeAlreadyPaired,
		Message: message,
	}
}

func NewAlreadyProcessedError() *AppError {
	return &AppError{
		Code:    CodeAlreadyProcessed,
		Message: "Request has already been processed",
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

// NewCapacityExceededError includes the numeric current/max so callers can
// surface the supervisor's load to the student.
func NewCapacityExceededError(current, max int) *AppError {
	return &AppError{
		Code:    CodeCapacityExceeded,
		Message: fmt.Sprintf("Supervisor capacity exceeded (%d/%d)", current, max),
	}
}

func NewTransientConflictError(err error) *AppError {
	return &AppError{
		Code:    CodeTransientConflict,
		Message: "Concurrent update conflict, please retry",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HTTPStatus maps an error code to its HTTP-equivalent status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeTransientConflict:
		return fiber.StatusConflict
	case CodeInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

var respLogger = observability.Component("http")

// RespondWithError creates a standardized error response. Wrapped causes are
// logged server-side; the client sees only the message and code.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		if appErr.Err != nil {
			respLogger.WarnContext(c.UserContext(), "request failed",
				"code", appErr.Code, "status", status, "error", appErr.Err)
		}
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithServiceError renders a service-layer error, selecting the HTTP
// status from the error code. Non-AppError values are treated as internal.
func RespondWithServiceError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return RespondWithError(c, appErr.HTTPStatus(), appErr)
	}
	return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(err))
}
