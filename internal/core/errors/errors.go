package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidQueryError   = "invalid_query"
	HttpUpstreamUnavailable = "upstream_unavailable"
	HttpNoDataError         = "no_data"
)

// ErrorResponse is the error response body for all price API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
