// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogInvalid    ErrorCode = "CATALOG_INVALID"

	ErrCodeBackendCallFailed  ErrorCode = "BACKEND_CALL_FAILED"
	ErrCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBackendBadResponse ErrorCode = "BACKEND_BAD_RESPONSE"

	ErrCodeCacheUnavailable       ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeDiagnosticsWriteFailed ErrorCode = "DIAGNOSTICS_WRITE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeCorpusIndexFailed             ErrorCode = "CORPUS_INDEX_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, retryable bool, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewInvalidInputError reports job variables that failed validation.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", false, nil, details)
}

// NewCatalogLoadFailedError reports an unreadable registry document.
func NewCatalogLoadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Failed to load entity registry", false, err, "").
		WithMetadata("path", path)
}

// NewCatalogInvalidError reports a registry document that failed its checks.
func NewCatalogInvalidError(err error) *StandardError {
	return newError(ErrCodeCatalogInvalid, "Entity registry is invalid", false, err, "")
}

// NewBackendCallFailedError reports a transport or 5xx failure from the retrieval backend.
func NewBackendCallFailedError(err error) *StandardError {
	return newError(ErrCodeBackendCallFailed, "Retrieval backend call failed", true, err, "")
}

// NewBackendTimeoutError reports a backend call that exceeded its deadline.
func NewBackendTimeoutError(err error) *StandardError {
	return newError(ErrCodeBackendTimeout, "Retrieval backend timed out", true, err, "")
}

// NewBackendBadResponseError reports an undecodable or rejected backend response.
func NewBackendBadResponseError(err error) *StandardError {
	return newError(ErrCodeBackendBadResponse, "Retrieval backend returned an unusable response", false, err, "")
}

// NewCacheUnavailableError reports a redis failure.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Answer cache unavailable", true, err, "")
}

// NewDiagnosticsWriteFailedError reports a failed diagnostics insert.
func NewDiagnosticsWriteFailedError(err error) *StandardError {
	return newError(ErrCodeDiagnosticsWriteFailed, "Failed to record diagnostics", true, err, "")
}

// NewNotificationSendFailedError reports a failed coverage-gap alert.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", notificationType), true, err, "")
}

// NewCorpusIndexFailedError reports a bulk request that Elasticsearch rejected.
func NewCorpusIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeCorpusIndexFailed, "Corpus indexing failed", true, err, "").
		WithMetadata("index", index)
}

// NewElasticsearchConnectionFailedError reports an unreachable cluster.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Failed to connect to Elasticsearch", true, err, "")
}

// NewBrokerUnavailableError reports a failed Zeebe gateway operation.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Zeebe gateway unavailable", true, err, "").
		WithMetadata("operation", operation)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", false, err, "")
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeCatalogLoadFailed:             "CATALOG_LOAD_FAILED",
	ErrCodeCatalogInvalid:                "CATALOG_INVALID",
	ErrCodeBackendCallFailed:             "BACKEND_CALL_FAILED",
	ErrCodeBackendTimeout:                "BACKEND_TIMEOUT",
	ErrCodeBackendBadResponse:            "BACKEND_BAD_RESPONSE",
	ErrCodeCacheUnavailable:              "CACHE_UNAVAILABLE",
	ErrCodeDiagnosticsWriteFailed:        "DIAGNOSTICS_WRITE_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeCorpusIndexFailed:             "CORPUS_INDEX_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeBrokerUnavailable:             "BROKER_UNAVAILABLE",
	ErrCodeInternal:                      "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeElasticsearchConnectionFailed,
		ErrCodeCorpusIndexFailed,
		ErrCodeDiagnosticsWriteFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCacheUnavailable,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeBackendCallFailed:
		return 2

	case ErrCodeBackendTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "BACKEND"):
		return "BACKEND"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "CORPUS"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "DIAGNOSTICS"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}
