package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"

	ErrCodeLeaveTypeNotFound     ErrorCode = "LEAVE_TYPE_NOT_FOUND"
	ErrCodeApplicationNotFound   ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeBalanceNotFound       ErrorCode = "BALANCE_NOT_FOUND"
	ErrCodeCreditRequestNotFound ErrorCode = "CREDIT_REQUEST_NOT_FOUND"
	ErrCodeHolidayNotFound       ErrorCode = "HOLIDAY_NOT_FOUND"
	ErrCodeAttachmentNotFound    ErrorCode = "ATTACHMENT_NOT_FOUND"
	ErrCodeEmployeeNotFound      ErrorCode = "EMPLOYEE_NOT_FOUND"

	ErrCodeInvalidApplicationState     ErrorCode = "INVALID_APPLICATION_STATE"
	ErrCodeInsufficientBalance         ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeNoWorkingDays               ErrorCode = "NO_WORKING_DAYS"
	ErrCodeOverlappingApplication      ErrorCode = "OVERLAPPING_APPLICATION"
	ErrCodeDuplicateRestrictedHoliday  ErrorCode = "DUPLICATE_RESTRICTED_HOLIDAY"
	ErrCodeInsufficientNotice          ErrorCode = "INSUFFICIENT_NOTICE"
	ErrCodeExceedsConsecutiveLimit     ErrorCode = "EXCEEDS_CONSECUTIVE_LIMIT"
	ErrCodeGenderIneligible            ErrorCode = "GENDER_INELIGIBLE"
	ErrCodeDocumentRequired            ErrorCode = "DOCUMENT_REQUIRED"
	ErrCodeDuplicateCreditRequest      ErrorCode = "DUPLICATE_CREDIT_REQUEST"
	ErrCodeInvalidRecallDate           ErrorCode = "INVALID_RECALL_DATE"
	ErrCodeUnauthorizedAccess          ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidToken                ErrorCode = "INVALID_TOKEN"
	ErrCodeConsistencyFault            ErrorCode = "CONSISTENCY_FAULT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewConsistencyFault marks a ledger invariant violation. It is never
// user-recoverable: callers must abort the surrounding transaction and
// the error is logged at the highest severity before surfacing as a 500.
func NewConsistencyFault(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeConsistencyFault,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

var (
	ErrLeaveTypeNotFound     = NewNotFoundError("leave type not found", ErrCodeLeaveTypeNotFound)
	ErrApplicationNotFound   = NewNotFoundError("leave application not found", ErrCodeApplicationNotFound)
	ErrBalanceNotFound       = NewNotFoundError("leave balance not found", ErrCodeBalanceNotFound)
	ErrCreditRequestNotFound = NewNotFoundError("leave credit request not found", ErrCodeCreditRequestNotFound)
	ErrHolidayNotFound       = NewNotFoundError("public holiday not found", ErrCodeHolidayNotFound)
	ErrEmployeeNotFound      = NewNotFoundError("employee not found", ErrCodeEmployeeNotFound)

	ErrInvalidApplicationState    = NewConflictError("application is not in the required state for this action", ErrCodeInvalidApplicationState)
	ErrInsufficientBalance        = NewValidationError("insufficient leave balance", ErrCodeInsufficientBalance)
	ErrNoWorkingDays              = NewValidationError("the selected date range contains no working days", ErrCodeNoWorkingDays)
	ErrOverlappingApplication     = NewConflictError("an application already exists for an overlapping date range", ErrCodeOverlappingApplication)
	ErrDuplicateRestrictedHoliday = NewValidationError("restricted holiday is not available for the selected date", ErrCodeDuplicateRestrictedHoliday)
	ErrInsufficientNotice         = NewValidationError("leave type requires more advance notice", ErrCodeInsufficientNotice)
	ErrExceedsConsecutiveLimit    = NewValidationError("request exceeds maximum consecutive days for this leave type", ErrCodeExceedsConsecutiveLimit)
	ErrGenderIneligible           = NewValidationError("employee is not eligible for this leave type", ErrCodeGenderIneligible)
	ErrDocumentRequired           = NewValidationError("this leave type requires a supporting document", ErrCodeDocumentRequired)
	ErrDuplicateCreditRequest     = NewConflictError("a credit request already exists for this date", ErrCodeDuplicateCreditRequest)
	ErrInvalidRecallDate          = NewValidationError("recall date must fall within the approved leave period", ErrCodeInvalidRecallDate)
	ErrUnauthorizedAccess         = NewForbiddenError("not authorized to perform this action", ErrCodeUnauthorizedAccess)
	ErrInvalidToken               = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

// IsConsistencyFault reports whether err is a ledger invariant violation.
func IsConsistencyFault(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == ErrCodeConsistencyFault
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
