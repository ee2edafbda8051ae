package distill

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindParseFailure      ErrorKind = "parse_failure"
	KindNetworkFailure    ErrorKind = "network_failure"
	KindProviderFailure   ErrorKind = "provider_failure"
	KindOutputFailure     ErrorKind = "output_failure"
	KindUnknown           ErrorKind = "unknown"
)

// NetworkCause refines a network failure
type NetworkCause string

const (
	NetworkTimeout    NetworkCause = "timeout"
	NetworkDNS        NetworkCause = "dns"
	NetworkHTTPStatus NetworkCause = "http_status"
	NetworkConnection NetworkCause = "connection"
)

// SupportedFormats lists the source kinds accepted by the parser
var SupportedFormats = []string{".pdf", ".md", ".markdown", ".txt", "http://", "https://"}

// Error is a classified pipeline error tied to one source
type Error struct {
	Kind         ErrorKind
	Source       string
	Message      string
	Hint         string
	NetworkCause NetworkCause
	StatusCode   int
	Cause        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Source != "" {
		fmt.Fprintf(&b, " (source: %s)", e.Source)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error with the default hint for its kind
func NewError(kind ErrorKind, source, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Source:  source,
		Message: message,
		Hint:    DefaultHint(kind),
		Cause:   cause,
	}
}

// NotFound reports a missing input path
func NotFound(source string, cause error) *Error {
	return NewError(KindNotFound, source, "input does not exist", cause)
}

// UnsupportedFormat reports an unknown extension or scheme
func UnsupportedFormat(source, detail string) *Error {
	return NewError(KindUnsupportedFormat, source,
		fmt.Sprintf("%s; supported formats: %s", detail, strings.Join(SupportedFormats, ", ")), nil)
}

// ParseFailure reports that no usable text could be extracted
func ParseFailure(source, message string, cause error) *Error {
	return NewError(KindParseFailure, source, message, cause)
}

// NetworkFailure reports a failed fetch, refined by cause
func NetworkFailure(source string, cause NetworkCause, status int, err error) *Error {
	msg := fmt.Sprintf("fetch failed (%s)", cause)
	if cause == NetworkHTTPStatus {
		msg = fmt.Sprintf("fetch failed with HTTP status %d", status)
	}
	e := NewError(KindNetworkFailure, source, msg, err)
	e.NetworkCause = cause
	e.StatusCode = status
	e.Hint = networkHint(cause, status)
	return e
}

// KindOf returns the kind of the first classified error in the chain
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k interface{ ErrorKind() ErrorKind }
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindUnknown
}

// DefaultHint returns a concrete next step for a kind of failure
func DefaultHint(kind ErrorKind) string {
	switch kind {
	case KindNotFound:
		return "check the path and that the file exists"
	case KindUnsupportedFormat:
		return "convert the input to .pdf, .md or .txt, or pass an http(s) URL"
	case KindParseFailure:
		return "the file may be corrupted or password protected; re-download or re-export it, or convert it to text and pass --input file.txt"
	case KindNetworkFailure:
		return "check your internet connection and that the URL is reachable"
	case KindProviderFailure:
		return "check the API key and provider settings, then retry"
	case KindOutputFailure:
		return "check that the output directory exists and is writable"
	default:
		return "re-run with --verbose for details"
	}
}

func networkHint(cause NetworkCause, status int) string {
	switch cause {
	case NetworkTimeout:
		return "the server took too long to respond; retry later or increase fetch.timeout"
	case NetworkDNS:
		return "the host name could not be resolved; check the URL spelling and your DNS settings"
	case NetworkHTTPStatus:
		if status == 404 {
			return "the page was not found; check the URL"
		}
		return "the server returned an error status; retry later or check access to the page"
	default:
		return DefaultHint(KindNetworkFailure)
	}
}

// ErrorRecord is the serializable form of a classified error
type ErrorRecord struct {
	Kind         ErrorKind    `json:"kind"`
	Message      string       `json:"message"`
	Hint         string       `json:"hint,omitempty"`
	NetworkCause NetworkCause `json:"network_cause,omitempty"`
	StatusCode   int          `json:"status_code,omitempty"`
}

// RecordOf converts any error into an ErrorRecord
func RecordOf(err error) *ErrorRecord {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &ErrorRecord{
			Kind:         e.Kind,
			Message:      err.Error(),
			Hint:         e.Hint,
			NetworkCause: e.NetworkCause,
			StatusCode:   e.StatusCode,
		}
	}
	kind := KindOf(err)
	return &ErrorRecord{
		Kind:    kind,
		Message: err.Error(),
		Hint:    DefaultHint(kind),
	}
}
