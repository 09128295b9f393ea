package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
)

// --- CategorizeError Tests ---

func TestCategorizeError_NilError(t *testing.T) {
	result := CategorizeError(nil)
	if result != "None" {
		t.Errorf("CategorizeError(nil) = %q, want %q", result, "None")
	}
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"RobotsDisallowed", ErrRobotsDisallowed, "Policy_Robots"},
		{"Structure", ErrStructure, "Content_StructureMissing"},
		{"ProximityAPI", ErrProximityAPI, "Proximity_API"},
		{"RequestCreation", ErrRequestCreation, "Internal_RequestCreation"},
		{"ResponseBodyRead", ErrResponseBodyRead, "Network_BodyRead"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
		{"ServerHTTPError", ErrServerHTTPError, "HTTP_5xx"},
		{"OtherHTTPError", ErrOtherHTTPError, "HTTP_OtherStatus"},
		{"Database", ErrDatabase, "Database_Other"},
		{"Filesystem", ErrFilesystem, "Filesystem_Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_WrappedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "WrappedStructure",
			err:      fmt.Errorf("site page https://www.nps.gov/isro/index.htm: %w", ErrStructure),
			expected: "Content_StructureMissing",
		},
		{
			name:     "DoubleWrapped",
			err:      fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrRobotsDisallowed)),
			expected: "Policy_Robots",
		},
		{
			name:     "FilesystemNotExist",
			err:      fmt.Errorf("%w: %w", ErrFilesystem, os.ErrNotExist),
			expected: "Filesystem_NotExist",
		},
		{
			name:     "FilesystemPermission",
			err:      fmt.Errorf("%w: %w", ErrFilesystem, os.ErrPermission),
			expected: "Filesystem_Permission",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_HTTPStatus(t *testing.T) {
	pageURL := "https://www.nps.gov/state/ga/index.htm"
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"404", NewHTTPStatusError(404, pageURL), "HTTP_404"},
		{"403", NewHTTPStatusError(403, pageURL), "HTTP_403"},
		{"429", NewHTTPStatusError(429, pageURL), "HTTP_429"},
		{"Generic4xx", NewHTTPStatusError(400, pageURL), "HTTP_4xx"},
		{"5xx", NewHTTPStatusError(503, pageURL), "HTTP_5xx"},
		{"NotModified", NewHTTPStatusError(304, pageURL), "HTTP_OtherStatus"},
		{"Wrapped404", fmt.Errorf("region listing: %w", NewHTTPStatusError(404, pageURL)), "HTTP_404"},
		// a 404 in the URL path is not a 404 status
		{"CodeInURL", NewHTTPStatusError(500, "https://www.nps.gov/404/index.htm"), "HTTP_5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestHTTPStatusError_MatchesClassSentinel(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{404, ErrClientHTTPError},
		{500, ErrServerHTTPError},
		{304, ErrOtherHTTPError},
	}

	for _, tt := range tests {
		err := fmt.Errorf("fetch: %w", NewHTTPStatusError(tt.status, "https://www.nps.gov/"))
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("status %d: errors.Is(%v, %v) = false", tt.status, err, tt.sentinel)
		}
	}

	got := NewHTTPStatusError(404, "https://www.nps.gov/x").Error()
	want := "client HTTP error (4xx): status 404 https://www.nps.gov/x"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCategorizeError_ParsingErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"URLParsing", fmt.Errorf("%w '%s': %w", ErrParsingURL, "http://%zz", errors.New("invalid escape")), "Content_ParsingURL"},
		{"HTMLParsing", fmt.Errorf("%w: %w", ErrParsingHTML, errors.New("unexpected EOF")), "Content_ParsingHTML"},
		{"JSONParsing", fmt.Errorf("%w response for '%s'", ErrParsingJSON, "30303"), "Content_ParsingJSON"},
		{"GenericParsing", fmt.Errorf("%w: duration", ErrParsing), "Content_ParsingOther"},
		// message text alone does not pick the kind
		{"KindOnlyInText", fmt.Errorf("%w: bad JSON in URL", ErrParsing), "Content_ParsingOther"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestParsingKinds_MatchErrParsing(t *testing.T) {
	for _, kind := range []error{ErrParsingURL, ErrParsingHTML, ErrParsingJSON} {
		if !errors.Is(fmt.Errorf("wrapped: %w", kind), ErrParsing) {
			t.Errorf("errors.Is(%v, ErrParsing) = false", kind)
		}
	}
}

func TestCategorizeError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ContextCanceled", context.Canceled, "System_ContextCanceled"},
		{"ContextDeadlineExceeded", context.DeadlineExceeded, "System_ContextDeadlineExceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

// timeoutError is a net.Error that reports a timeout
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestCategorizeError_NetworkErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Timeout",
			err:      &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}},
			expected: "Network_Timeout",
		},
		{
			name:     "ConnectionRefused",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			expected: "Network_ConnectionRefused",
		},
		{
			name:     "ConnectionReset",
			err:      fmt.Errorf("GET https://www.nps.gov/: %w", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}),
			expected: "Network_ConnectionReset",
		},
		{
			name:     "DNSLookup",
			err:      &net.DNSError{Err: "no such host", Name: "www.nps.invalid", IsNotFound: true},
			expected: "Network_DNSLookup",
		},
		{
			name:     "PlainTextIsUnknown",
			err:      errors.New("dial tcp: connection refused"),
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_Unknown(t *testing.T) {
	err := errors.New("some completely unknown error")
	if result := CategorizeError(err); result != "Unknown" {
		t.Errorf("CategorizeError(%v) = %q, want %q", err, result, "Unknown")
	}
}

// --- SanitizeFilename Tests ---

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Host", "www.nps.gov", "www.nps.gov"},
		{"HostWithPort", "127.0.0.1:8080", "127.0.0.1_8080"},
		{"WithSlash", "path/to/file", "path_to_file"},
		{"ConsecutiveUnderscores", "a___b", "a_b"},
		{"LeadingTrailingSpaces", "  file  ", "file"},
		{"Empty", "", "untitled"},
		{"OnlyInvalidChars", "<>:", "untitled"},
		{"ControlChars", "file\x01\x02name", "file_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LongNames(t *testing.T) {
	result := SanitizeFilename(strings.Repeat("a", 150))
	if len(result) > 100 {
		t.Errorf("SanitizeFilename(long) length = %d, want <= 100", len(result))
	}
}
