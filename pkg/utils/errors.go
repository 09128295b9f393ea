package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrClientHTTPError  = errors.New("client HTTP error (4xx)")
	ErrServerHTTPError  = errors.New("server HTTP error (5xx)")
	ErrOtherHTTPError   = errors.New("other HTTP error (non-2xx)")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrStructure        = errors.New("expected document node missing")
	ErrParsing          = errors.New("parsing error")
	ErrFilesystem       = errors.New("filesystem error") // Wraps os errors
	ErrDatabase         = errors.New("database error")   // Wraps badger errors
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrProximityAPI     = errors.New("proximity service error")
	ErrConfigValidation = errors.New("configuration validation error")
)

// Parsing errors by input kind. Each also matches ErrParsing.
var (
	ErrParsingURL  = fmt.Errorf("%w: URL", ErrParsing)
	ErrParsingHTML = fmt.Errorf("%w: HTML", ErrParsing)
	ErrParsingJSON = fmt.Errorf("%w: JSON", ErrParsing)
)

// HTTPStatusError is a non-2xx response. It matches the sentinel for its status class.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

// NewHTTPStatusError builds the error for a non-2xx status code
func NewHTTPStatusError(statusCode int, pageURL string) *HTTPStatusError {
	return &HTTPStatusError{StatusCode: statusCode, URL: pageURL}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%v: status %d %s", e.Unwrap(), e.StatusCode, e.URL)
}

// Unwrap returns ErrServerHTTPError, ErrClientHTTPError or ErrOtherHTTPError
func (e *HTTPStatusError) Unwrap() error {
	switch {
	case e.StatusCode >= 500 && e.StatusCode <= 599:
		return ErrServerHTTPError
	case e.StatusCode >= 400 && e.StatusCode <= 499:
		return ErrClientHTTPError
	default:
		return ErrOtherHTTPError
	}
}

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	var statusErr *HTTPStatusError
	switch {
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case 403:
			return "HTTP_403"
		case 404:
			return "HTTP_404"
		case 429:
			return "HTTP_429"
		}
		if errors.Is(err, ErrClientHTTPError) {
			return "HTTP_4xx"
		}
		if errors.Is(err, ErrServerHTTPError) {
			return "HTTP_5xx"
		}
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrClientHTTPError):
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrStructure):
		return "Content_StructureMissing"
	case errors.Is(err, ErrParsingURL):
		return "Content_ParsingURL"
	case errors.Is(err, ErrParsingHTML):
		return "Content_ParsingHTML"
	case errors.Is(err, ErrParsingJSON):
		return "Content_ParsingJSON"
	case errors.Is(err, ErrParsing):
		return "Content_ParsingOther"
	case errors.Is(err, ErrProximityAPI):
		return "Proximity_API"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return "Network_ConnectionRefused"
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return "Network_ConnectionReset"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "Network_DNSLookup"
	}

	return "Unknown"
}
