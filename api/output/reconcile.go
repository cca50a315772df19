package output

import (
	"html"
	"regexp"
	"strings"

	"github.com/ka2n/csswrap/api/fetch"
	"github.com/ka2n/csswrap/api/source"
	"github.com/samber/lo"
)

// WithResponseRef returns a copy of out whose response ref is uri.
func WithResponseRef(out Output, uri string) Output {
	c := out.clone()
	c.Response.Ref = uri
	return c
}

// WithMessagesRefFromSourceMap maps the ref of every warning and error that
// is the local URI of a source back to the source's remote URI. Other refs
// and info messages are kept.
func WithMessagesRefFromSourceMap(out Output, sources *source.Map) Output {
	c := out.clone()
	for i, m := range c.Response.Messages {
		if !m.isIssue() {
			continue
		}
		if s, ok := sources.GetByLocalURI(m.Ref); ok {
			c.Response.Messages[i].Ref = s.URI
		}
	}
	return c
}

// WithMessagesRefFromURL sets the ref of every warning and error to uri.
func WithMessagesRefFromURL(out Output, uri string) Output {
	c := out.clone()
	for i, m := range c.Response.Messages {
		if m.isIssue() {
			c.Response.Messages[i].Ref = uri
		}
	}
	return c
}

// AppendFailureMessages appends one error message per failed fetch.
func AppendFailureMessages(out Output, failures []fetch.Outcome) Output {
	if len(failures) == 0 {
		return out
	}
	msgs := append(out.clone().Response.Messages, lo.Map(failures, func(f fetch.Outcome, _ int) Message {
		return Message{
			Type:  TypeError,
			Ref:   f.URI,
			Title: f.Message(),
		}
	})...)
	return out.withMessages(msgs)
}

var localRefPattern = regexp.MustCompile(`ref="(` + regexp.QuoteMeta(source.LocalScheme) + `[^"]*)"`)

// ReconcileRawOutput substitutes the remote URI for every ref="file:..."
// attribute in the validator's raw output. The first one always belongs to
// the root resource and becomes rootURL.
func ReconcileRawOutput(raw, rootURL string, sources *source.Map) string {
	first := true
	return localRefPattern.ReplaceAllStringFunc(raw, func(attr string) string {
		localURI := html.UnescapeString(localRefPattern.FindStringSubmatch(attr)[1])
		if first {
			first = false
			return `ref="` + html.EscapeString(rootURL) + `"`
		}
		s, ok := sources.GetByLocalURI(localURI)
		if !ok {
			return attr
		}
		return `ref="` + html.EscapeString(s.URI) + `"`
	})
}

// Reconcile maps a parsed output back to remote URIs: the response ref
// becomes rootURL and message refs go through sources.
func Reconcile(out Output, rootURL string, sources *source.Map) Output {
	return WithMessagesRefFromSourceMap(WithResponseRef(out, rootURL), sources)
}

// isLocalRef reports whether ref still points at a stored file.
func isLocalRef(ref string) bool {
	return strings.HasPrefix(ref, source.LocalScheme)
}
