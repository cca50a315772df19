// Package fetch retrieves remote resources and reports the result as a
// tagged Outcome instead of an error.
package fetch

import (
	"context"
	"strconv"

	"github.com/ka2n/csswrap/api/document"
)

// Kind tags an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindHTTPError
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http-error"
	case KindTransportError:
		return "transport-error"
	}
	return "unknown"
}

// Outcome is the result of fetching one URI.
type Outcome struct {
	Kind Kind
	URI  string

	// Success
	Content     []byte
	ContentType string

	// HTTP error. InvalidContentType is set when the response itself was
	// fine but its media type cannot be validated.
	Status             int
	InvalidContentType bool

	// Transport error
	Code int
	Err  error
}

// Success returns a successful outcome.
func Success(uri string, content []byte, contentType string) Outcome {
	return Outcome{Kind: KindSuccess, URI: uri, Content: content, ContentType: contentType}
}

// HTTPError returns an outcome for a non-2xx response.
func HTTPError(uri string, status int) Outcome {
	return Outcome{Kind: KindHTTPError, URI: uri, Status: status}
}

// TransportError returns an outcome for a request that got no usable
// response. code follows curl's exit codes.
func TransportError(uri string, code int, err error) Outcome {
	return Outcome{Kind: KindTransportError, URI: uri, Code: code, Err: err}
}

// RejectContentType turns a successful outcome into an HTTP-class failure
// carrying the response media type.
func (o Outcome) RejectContentType() Outcome {
	return Outcome{
		Kind:               KindHTTPError,
		URI:                o.URI,
		ContentType:        o.ContentType,
		Status:             200,
		InvalidContentType: true,
	}
}

func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// MediaType returns the lower-cased media type of ContentType.
func (o Outcome) MediaType() string {
	return document.ParseMediaType(o.ContentType)
}

// Message is the text used for a synthetic validator message:
// http-error:<status>, invalid-content-type:<type> or curl-error:<code>.
func (o Outcome) Message() string {
	switch {
	case o.Kind == KindHTTPError && o.InvalidContentType:
		return "invalid-content-type:" + o.MediaType()
	case o.Kind == KindHTTPError:
		return "http-error:" + strconv.Itoa(o.Status)
	case o.Kind == KindTransportError:
		return "curl-error:" + strconv.Itoa(o.Code)
	}
	return ""
}

// Classification is the exception label used when the root resource fails:
// invalid-content-type:<type>, http<status> or curl<code>.
func (o Outcome) Classification() string {
	switch {
	case o.Kind == KindHTTPError && o.InvalidContentType:
		return "invalid-content-type:" + o.MediaType()
	case o.Kind == KindHTTPError:
		return "http" + strconv.Itoa(o.Status)
	case o.Kind == KindTransportError:
		return "curl" + strconv.Itoa(o.Code)
	}
	return ""
}

// Fetcher retrieves a resource. Implementations must be safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) Outcome
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri string) Outcome

func (f FetcherFunc) Fetch(ctx context.Context, uri string) Outcome {
	return f(ctx, uri)
}
