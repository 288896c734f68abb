package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"boardcheck/internal/trello"
)

// ConnectionErrorType categorizes why the API host could not be reached.
type ConnectionErrorType int

const (
	ConnectionErrorUnknown ConnectionErrorType = iota
	ConnectionErrorTLS
	// ConnectionErrorNetwork covers refused, reset and unreachable.
	ConnectionErrorNetwork
	ConnectionErrorTimeout
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates the board API could not be reached at all.
type ConnectionError struct {
	// Endpoint is the base URL that could not be reached.
	Endpoint string
	Type     ConnectionErrorType
	Reason   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s reaching %s: %v\n\nCheck trello.baseUrl in your settings file and your network connection.", e.Type, e.Endpoint, e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// CredentialsError indicates the API rejected the key or token.
type CredentialsError struct {
	Reason error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf(`the board API rejected the credentials: %v

Set trello.key and trello.token in your settings file, or export
TRELLO_KEY and TRELLO_TOKEN.`, e.Reason)
}

func (e *CredentialsError) Unwrap() error {
	return e.Reason
}

// ExplainError maps a board client error to the error shown to the user.
// API status errors other than 401 pass through unchanged.
func ExplainError(err error, endpoint string) error {
	if err == nil {
		return nil
	}

	var boardErr *trello.BoardError
	if errors.As(err, &boardErr) {
		if boardErr.StatusCode == http.StatusUnauthorized {
			return &CredentialsError{Reason: err}
		}
		return err
	}

	// only transport failures are classified
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}

	return ClassifyConnectionError(err, endpoint)
}

// ClassifyConnectionError analyzes a transport error. A nil err gives nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	connErr := &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorUnknown, Reason: err}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		connErr.Type = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		connErr.Type = ConnectionErrorDNS
	case isTimeoutError(err):
		connErr.Type = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		connErr.Type = ConnectionErrorNetwork
	}
	return connErr
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
