package llm

import (
	"context"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// ErrEmptyCompletion is returned when a provider answers without any text
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// ProviderError is a failure of the language-model backend. Fatal errors mean
// further calls against the same provider cannot succeed (bad credentials,
// unknown model, unreachable endpoint).
type ProviderError struct {
	Provider   string
	StatusCode int
	Fatal      bool
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s provider error", e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Fatal {
		b.WriteString(" [fatal]")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies provider errors for batch reporting
func (e *ProviderError) ErrorKind() distill.ErrorKind {
	return distill.KindProviderFailure
}

// IsFatal reports whether err means the provider is unusable for the rest of the source
func IsFatal(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Fatal
	}
	return errors.Is(err, context.Canceled)
}

// IsProviderError reports whether err came from the language-model capability
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// newProviderError classifies err from provider using the HTTP status when known
func newProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Fatal:      isFatalStatus(status) || (status == 0 && isUnreachable(err)),
		Err:        err,
	}
}

func isFatalStatus(status int) bool {
	switch status {
	case 401, 403, 404:
		return true
	}
	return false
}

// isUnreachable detects DNS failures, refused connections and cancellation
func isUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}

// missingKeyError is returned at construction time when the provider has no credentials
func missingKeyError(provider, envVar string) error {
	return &ProviderError{
		Provider: provider,
		Fatal:    true,
		Err:      errors.Errorf("%s not set; export %s=<your-key> or put it in .env", envVar, envVar),
	}
}
