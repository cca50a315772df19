// Package document holds fetched HTML and CSS content as immutable values.
//
// A Document keeps its content verbatim in the declared character encoding so
// that fragments located in it can be replaced byte for byte. Every mutation
// returns a new Document; the receiver is never modified.
package document

import (
	"bytes"
	"mime"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	MediaTypeHTML  = "text/html"
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeCSS   = "text/css"
)

// Document is a fetched resource.
type Document struct {
	uri       string
	baseURI   string
	mediaType string
	charset   string
	content   string
}

// New builds a Document from a response body and its Content-Type header.
func New(uri, contentType string, body []byte) *Document {
	d := &Document{
		uri:       uri,
		baseURI:   uri,
		mediaType: ParseMediaType(contentType),
		content:   string(body),
	}
	d.charset = detectCharset(d.mediaType, contentType, body)
	if d.IsHTML() {
		if base := findBaseHref(d.Text()); base != "" {
			if resolved, err := Resolve(uri, base); err == nil {
				d.baseURI = resolved
			}
		}
	}
	return d
}

var markupPattern = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

// DetectContentType returns text/html when content contains markup tags and
// text/css otherwise.
func DetectContentType(content string) string {
	if markupPattern.MatchString(content) {
		return MediaTypeHTML
	}
	return MediaTypeCSS
}

// ParseMediaType returns the lower-cased media type of a Content-Type value.
func ParseMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func detectCharset(mediaType, contentType string, body []byte) string {
	if mediaType == MediaTypeCSS {
		if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
			return canonicalCharset(params["charset"])
		}
		if cs := ParseCSSPrelude(string(body)).Charset; cs != "" {
			return canonicalCharset(cs)
		}
		if utf8.Valid(body) {
			return "utf-8"
		}
	}
	_, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && utf8.Valid(body) {
		return "utf-8"
	}
	return canonicalCharset(name)
}

func canonicalCharset(name string) string {
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return "utf-8"
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return "utf-8"
	}
	return canonical
}

func findBaseHref(text string) string {
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "body":
				return ""
			case "base":
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" {
						return strings.TrimSpace(string(val))
					}
				}
			}
		}
	}
}

// URI is the URI the document was fetched from.
func (d *Document) URI() string { return d.uri }

// BaseURI is used to resolve relative references.
func (d *Document) BaseURI() string { return d.baseURI }

// MediaType is the lower-cased media type without parameters.
func (d *Document) MediaType() string { return d.mediaType }

// Charset is the canonical name of the content encoding.
func (d *Document) Charset() string { return d.charset }

// Content is the raw content in the document encoding.
func (d *Document) Content() string { return d.content }

// Bytes returns the raw content.
func (d *Document) Bytes() []byte { return []byte(d.content) }

// Text returns the content decoded to UTF-8.
func (d *Document) Text() string {
	return d.Decode(d.content)
}

// Decode converts a raw fragment of the content to UTF-8.
func (d *Document) Decode(raw string) string {
	if d.charset == "" || d.charset == "utf-8" {
		return raw
	}
	enc, err := htmlindex.Get(d.charset)
	if err != nil {
		return raw
	}
	text, err := enc.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return text
}

// Encode converts UTF-8 text into the document encoding.
func (d *Document) Encode(text string) string {
	if d.charset == "" || d.charset == "utf-8" {
		return text
	}
	enc, err := htmlindex.Get(d.charset)
	if err != nil {
		return text
	}
	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return text
	}
	return out
}

func (d *Document) IsHTML() bool {
	return d.mediaType == MediaTypeHTML || d.mediaType == MediaTypeXHTML
}

func (d *Document) IsCSS() bool {
	return d.mediaType == MediaTypeCSS
}

// Extension is the file extension used when the document is stored.
func (d *Document) Extension() string {
	switch {
	case d.IsHTML():
		return "html"
	case d.IsCSS():
		return "css"
	}
	if _, sub, ok := strings.Cut(d.mediaType, "/"); ok && sub != "" {
		return sub
	}
	return "txt"
}

// WithContent returns a copy of d holding content.
func (d *Document) WithContent(content string) *Document {
	c := *d
	c.content = content
	return &c
}

// Equal reports whether both documents have the same URI and content.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.uri == o.uri && bytes.Equal(d.Bytes(), o.Bytes())
}

// Resolve resolves ref against base and drops the fragment.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	u := b.ResolveReference(r)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
