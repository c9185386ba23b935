package errorutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
)

// NetworkError represents a network-related error with additional context
type NetworkError struct {
	Operation  string // The operation that failed (e.g., "geoposition search")
	URL        string // The URL that was being accessed
	StatusCode int    // HTTP status code (if applicable)
	Underlying error  // The underlying error
	Transient  bool   // Whether the failure looks transient
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed for %s: HTTP %d: %v", e.Operation, e.URL, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.URL, e.Underlying)
}

func (e *NetworkError) Unwrap() error {
	return e.Underlying
}

// NewNetworkError creates a new NetworkError with proper context
func NewNetworkError(operation, url string, err error) *NetworkError {
	return &NetworkError{
		Operation:  operation,
		URL:        url,
		Underlying: err,
		Transient:  isTransientError(err),
	}
}

// WithStatus sets the HTTP status code on the error and returns it
func (e *NetworkError) WithStatus(statusCode int) *NetworkError {
	e.StatusCode = statusCode
	if isTransientStatus(statusCode) {
		e.Transient = true
	}
	return e
}

// LogNetworkError logs a network error with appropriate structured context
func LogNetworkError(logger *slog.Logger, netErr *NetworkError) *NetworkError {
	if logger == nil {
		return netErr
	}

	attrs := []any{
		slog.String("operation", netErr.Operation),
		slog.String("url", netErr.URL),
		slog.String("error", netErr.Underlying.Error()),
		slog.Bool("transient", netErr.Transient),
	}

	if netErr.StatusCode > 0 {
		attrs = append(attrs, slog.Int("status_code", netErr.StatusCode))
	}

	// Transient failures are warnings; the next scheduled run is the retry.
	level := slog.LevelError
	if netErr.Transient {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "Network operation failed", attrs...)
	return netErr
}

// isTransientError determines if an error is likely to resolve on its own
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if isTimeoutError(err) {
		return true
	}

	if isDNSError(err) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable")
}

// isTransientStatus reports whether an HTTP status suggests a temporary condition
func isTransientStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// isDNSError checks if an error is a DNS resolution error
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		if errors.As(urlErr.Err, &dnsErr) {
			return true
		}
	}

	return false
}
