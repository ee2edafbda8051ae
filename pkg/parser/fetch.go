package parser

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/types/distill"
	"github.com/jingkaihe/distill/pkg/utils"
	"github.com/jingkaihe/distill/pkg/version"
)

const (
	// DefaultFetchTimeout bounds a single web fetch
	DefaultFetchTimeout = 30 * time.Second
	maxRedirects        = 10
	maxBodyBytes        = 20 << 20
)

// Fetcher retrieves the HTML of a web page
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (statusCode int, html string, err error)
}

// HTTPFetcher fetches pages over HTTP(S). It follows up to maxRedirects redirects,
// across hosts, and checks every redirect target against its domain filter.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	filter    *utils.DomainFilter
}

// FetcherOption configures an HTTPFetcher
type FetcherOption func(*HTTPFetcher)

// WithRedirectFilter rejects redirects whose target is outside the filter's allow-list
func WithRedirectFilter(df *utils.DomainFilter) FetcherOption {
	return func(f *HTTPFetcher) {
		f.filter = df
	}
}

// NewHTTPFetcher creates a fetcher with the given timeout. A zero timeout uses DefaultFetchTimeout.
func NewHTTPFetcher(timeout time.Duration, opts ...FetcherOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher. Failures are classified as *distill.Error values.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (int, string, error) {
	if _, err := validateWebURL(rawURL); err != nil {
		return 0, "", err
	}

	client := *f.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.Errorf("stopped after %d redirects", maxRedirects)
		}
		return checkAllowedDomain(f.filter, req.URL.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", distill.UnsupportedFormat(rawURL, "invalid URL")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		var derr *distill.Error
		if errors.As(err, &derr) {
			return 0, "", derr
		}
		return 0, "", classifyFetchError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, "", distill.NetworkFailure(rawURL, distill.NetworkHTTPStatus, resp.StatusCode,
			errors.Errorf("HTTP error: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, "", classifyFetchError(rawURL, err)
	}

	return resp.StatusCode, string(body), nil
}

func validateWebURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, distill.UnsupportedFormat(rawURL, "invalid URL")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, distill.UnsupportedFormat(rawURL, "invalid URL scheme "+parsed.Scheme+", use http:// or https://")
	}
	if parsed.Hostname() == "" {
		return nil, distill.UnsupportedFormat(rawURL, "URL has no host")
	}
	return parsed, nil
}

// checkAllowedDomain returns an UnsupportedFormat error when rawURL is outside a non-empty filter
func checkAllowedDomain(df *utils.DomainFilter, rawURL string) error {
	if df.IsEmpty() {
		return nil
	}
	if allowed, err := df.IsAllowed(rawURL); err == nil && allowed {
		return nil
	}
	e := distill.UnsupportedFormat(rawURL, "domain is not in the allowed domains list")
	e.Hint = "add the domain to the file configured as fetch.allowed_domains_file"
	return e
}

// classifyFetchError maps transport errors onto timeout, DNS or connection causes
func classifyFetchError(rawURL string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return distill.NetworkFailure(rawURL, distill.NetworkTimeout, 0, err)
		}
		return distill.NetworkFailure(rawURL, distill.NetworkDNS, 0, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return distill.NetworkFailure(rawURL, distill.NetworkTimeout, 0, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return distill.NetworkFailure(rawURL, distill.NetworkTimeout, 0, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return distill.NetworkFailure(rawURL, distill.NetworkTimeout, 0, err)
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "resolve"):
		return distill.NetworkFailure(rawURL, distill.NetworkDNS, 0, err)
	}

	return distill.NetworkFailure(rawURL, distill.NetworkConnection, 0, err)
}
