package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ka2n/csswrap/log"
)

// Curl-compatible transport error codes.
const (
	CodeUnsupportedProtocol = 1
	CodeMalformedURL        = 3
	CodeResolveHost         = 6
	CodeConnect             = 7
	CodeTimeout             = 28
	CodeTLSHandshake        = 35
	CodeTooManyRedirects    = 47
	CodeEmptyReply          = 52
	CodeReceive             = 56
	CodeCertificate         = 60
)

const (
	DefaultUserAgent = "csswrap"
	DefaultTimeout   = 30 * time.Second
	maxRedirects     = 10
)

var errTooManyRedirects = errors.New("too many redirects")

// Options configures an HTTPFetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Cookies   map[string]string
	Username  string
	Password  string
}

// HTTPFetcher fetches resources over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
	opts   Options
}

// NewHTTPFetcher returns a fetcher whose requests and responses are logged
// at debug level.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: log.NewTransport(http.DefaultTransport),
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		opts: opts,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) Outcome {
	logger := log.Logger.With("uri", uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return TransportError(uri, CodeMalformedURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	for name, value := range f.opts.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if f.opts.Username != "" {
		req.SetBasicAuth(f.opts.Username, f.opts.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		code := TransportErrorCode(err)
		logger.Debug("Fetch failed", "code", code, "error", err)
		return TransportError(uri, code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("Fetch returned error status", "status", resp.StatusCode)
		return HTTPError(uri, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportError(uri, TransportErrorCode(err), err)
	}
	return Success(uri, body, resp.Header.Get("Content-Type"))
}

// TransportErrorCode maps a request error to the closest curl exit code.
func TransportErrorCode(err error) int {
	var (
		dnsErr      *net.DNSError
		opErr       *net.OpError
		netErr      net.Error
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		urlErr      *url.Error
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errTooManyRedirects):
		return CodeTooManyRedirects
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeResolveHost
	case errors.As(err, &unknownCA),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr),
		errors.As(err, &verifyErr):
		return CodeCertificate
	case errors.As(err, &recordErr):
		return CodeTLSHandshake
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return CodeEmptyReply
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeConnect
	case errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "unsupported protocol scheme"):
		return CodeUnsupportedProtocol
	case strings.Contains(err.Error(), "tls:"):
		return CodeTLSHandshake
	}
	return CodeReceive
}
