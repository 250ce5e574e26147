package api

import "net/http"

// SuccessResponse wraps the payload of every successful API response.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the body of every failed API response that is not a
// limit decline.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeUnknownCategory  = "UNKNOWN_CATEGORY"
	CodeUnknownMetric    = "UNKNOWN_METRIC"
	CodeUnknownTier      = "UNKNOWN_TIER"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeThrottled        = "THROTTLED"
	CodeInternal         = "INTERNAL_ERROR"
)

// NewError builds an error body.
func NewError(message, code string) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: message, Code: code}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeInvalidRequest, CodeInvalidAmount, CodeUnknownMetric:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUnknownCategory, CodeUnknownTier, CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
