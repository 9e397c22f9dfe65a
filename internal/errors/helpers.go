package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a forwarder configuration error
func NewConfigError(message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithUserMessage("Forwarder configuration error")
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Database operation failed")
}

// NewDeliveryError creates a delivery error for a failed forward attempt.
// A 5xx or 429 from the remote endpoint is a temporary condition.
func NewDeliveryError(kind string, statusCode int, err error) *AppError {
	appErr := Wrap(err, ErrCodeDeliveryFailed, fmt.Sprintf("%s delivery failed", kind)).
		WithContext("forwarder", kind).
		WithContext("status_code", statusCode).
		WithUserMessage("Message delivery failed")

	if statusCode >= 500 || statusCode == 429 || statusCode == 408 {
		appErr.Retryable = true
	}

	return appErr
}

// NewSetupCheckError creates a link-check error. It is always retryable:
// a failed check is indistinguishable from "not yet linked".
func NewSetupCheckError(err error) *AppError {
	return WrapRetryable(err, ErrCodeSetupCheck, "relay link check failed").
		WithUserMessage("Setup check failed, try again")
}

// NewNotFoundError creates a not found error with resource context
func NewNotFoundError(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// HTTPStatusCode maps error codes to appropriate HTTP status codes
func HTTPStatusCode(err error) int {
	code := GetCode(err)

	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeMissingConfig:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeDeliveryFailed, ErrCodeSetupCheck:
		if IsRetryable(err) {
			return 502
		}
		return 500
	case ErrCodeDatabaseConnection, ErrCodeDatabaseQuery:
		return 503
	default:
		return 500
	}
}

// HTTPErrorResponse is the standardized HTTP error payload
type HTTPErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTPResponse converts an error to a standardized HTTP response
func ToHTTPResponse(err error, requestID string) HTTPErrorResponse {
	response := HTTPErrorResponse{
		RequestID: requestID,
	}

	if appErr, ok := err.(*AppError); ok {
		response.Error.Code = appErr.Code
	} else {
		response.Error.Code = ErrCodeInternalError
	}
	response.Error.Message = GetUserMessage(err)

	return response
}
