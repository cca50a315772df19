// Package inspector finds stylesheet references in fetched documents.
//
// URLs are discovered with an HTML query over the decoded document, while
// reference fragments are located by scanning the raw content so they can be
// replaced verbatim. Malformed markup never produces an error; a reference
// that cannot be located is simply not returned.
package inspector

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ka2n/csswrap/api/document"
	"github.com/ka2n/csswrap/api/scan"
	"github.com/ka2n/csswrap/log"
	"github.com/samber/lo"
)

// Reference is a literal fragment of a document that holds a reference
// value, e.g. `<link rel="stylesheet" href="/a.css"`.
type Reference struct {
	// Fragment is the verbatim text in the document encoding. It is made of
	// an opening token, Value and Suffix.
	Fragment string

	// Value is the reference value as it appears in Fragment.
	Value string

	// Suffix is the single delimiter following Value (a quote, bracket or
	// whitespace), kept so that a value cannot match the start of a longer
	// one. Empty when the value ends the content.
	Suffix string

	offset int
}

// Prefix returns the part of Fragment before Value.
func (r Reference) Prefix() string {
	return strings.TrimSuffix(strings.TrimSuffix(r.Fragment, r.Suffix), r.Value)
}

const delimiters = "\"' \t\r\n\f>/);"

var (
	hrefAdjoining = regexp.MustCompile(`(?i)\shref\s*=\s*["']?$`)

	importAdjoining = regexp.MustCompile(`(?is)^@import\s*(url\(\s*)?["']?$`)
)

// stylesheetHrefs returns the href attribute values of <link rel=stylesheet>
// elements in document order. Values are entity-decoded UTF-8.
func stylesheetHrefs(doc *document.Document) []string {
	q, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Text()))
	if err != nil {
		log.Warn("Failed to parse document", "uri", doc.URI(), "error", err)
		return nil
	}

	var hrefs []string
	q.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if !isStylesheet(s) {
			return
		}
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs
}

func isStylesheet(s *goquery.Selection) bool {
	rel, _ := s.Attr("rel")
	return strings.EqualFold(strings.TrimSpace(rel), "stylesheet")
}

// stylesheetTag reports whether tag, the decoded markup of one element, can
// anchor a stylesheet reference. Only a link whose rel is not stylesheet is
// rejected.
func stylesheetTag(tag string) bool {
	q, err := goquery.NewDocumentFromReader(strings.NewReader(tag))
	if err != nil {
		return true
	}
	link := q.Find("link").First()
	if link.Length() == 0 {
		return true
	}
	return isStylesheet(link)
}

// FindStylesheetURLs returns the absolute URLs of the stylesheets linked from
// doc, without fragments, de-duplicated in first-seen order.
func FindStylesheetURLs(doc *document.Document) []string {
	if !doc.IsHTML() {
		return nil
	}
	return resolveAll(doc, lo.Filter(stylesheetHrefs(doc), func(href string, _ int) bool {
		return strings.TrimSpace(href) != ""
	}))
}

// FindImportURLs returns the absolute URLs of the @import rules of a CSS
// document.
func FindImportURLs(doc *document.Document) []string {
	if !doc.IsCSS() {
		return nil
	}
	return resolveAll(doc, document.ParseCSSPrelude(doc.Text()).Imports)
}

// BaseURL returns the URL relative references of doc resolve against: the
// <base href> of an HTML document, or the document URI.
func BaseURL(doc *document.Document) string {
	return doc.BaseURI()
}

// DetectCSSCharset returns the lower-cased @charset declared by a CSS
// document, or "" when there is none.
func DetectCSSCharset(doc *document.Document) string {
	if !doc.IsCSS() {
		return ""
	}
	return strings.ToLower(document.ParseCSSPrelude(doc.Content()).Charset)
}

func resolveAll(doc *document.Document, refs []string) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		u, err := document.Resolve(doc.BaseURI(), ref)
		if err != nil {
			log.Debug("Skipping unresolvable reference", "uri", doc.URI(), "ref", ref, "error", err)
			continue
		}
		urls = append(urls, u)
	}
	return lo.Uniq(urls)
}

// FindStylesheetReferences returns the fragments anchoring every
// <link rel=stylesheet href=...> of doc, in document order.
func FindStylesheetReferences(doc *document.Document) []Reference {
	if !doc.IsHTML() {
		return nil
	}
	sc := scan.New(doc.Content(), doc.Charset())
	f := finder{doc: doc, sc: sc, opener: "<link", adjoining: hrefAdjoining, accept: stylesheetTag}

	var refs []Reference
	for _, href := range lo.Uniq(stylesheetHrefs(doc)) {
		if strings.TrimSpace(href) == "" {
			for _, quote := range []string{`"`, `'`} {
				needle := "href=" + quote + href + quote
				refs = append(refs, f.find(doc.Encode(needle), len([]rune("href="+quote)), doc.Encode(href))...)
			}
			continue
		}
		for _, v := range lo.Uniq([]string{href, strings.ReplaceAll(href, "&", "&amp;")}) {
			encoded := doc.Encode(v)
			refs = append(refs, f.find(encoded, 0, encoded)...)
		}
	}
	return ordered(refs)
}

// FindImportReferences returns the fragments anchoring the @import rules of a
// CSS document, in document order.
func FindImportReferences(doc *document.Document) []Reference {
	if !doc.IsCSS() {
		return nil
	}
	sc := scan.New(doc.Content(), doc.Charset())
	f := finder{doc: doc, sc: sc, opener: "@import", adjoining: importAdjoining}

	var refs []Reference
	for _, imp := range lo.Uniq(document.ParseCSSPrelude(doc.Text()).Imports) {
		encoded := doc.Encode(imp)
		refs = append(refs, f.find(encoded, 0, encoded)...)
	}
	return ordered(refs)
}

type finder struct {
	doc *document.Document
	sc  *scan.Scanner
	// opener is matched case-insensitively.
	opener    string
	adjoining *regexp.Regexp
	// accept, when set, vets the whole element around a candidate.
	accept func(tag string) bool
}

// find locates every occurrence of needle whose value (starting valueAt
// characters into needle) is adjoined by an opener. Occurrences that are not
// adjoined are skipped and the search continues after them.
func (f finder) find(needle string, valueAt int, value string) []Reference {
	var refs []Reference
	needleLen := len([]rune(f.doc.Decode(needle)))
	if needleLen == 0 {
		return nil
	}
	for from := 0; ; {
		i := f.sc.Index(needle, from)
		if i < 0 {
			return refs
		}
		at := i + valueAt
		suffix, complete := f.suffixAt(at + len([]rune(f.doc.Decode(value))))
		if prefix, ok := f.previousOpener(at); ok && complete && f.accepts(prefix, at) {
			refs = append(refs, Reference{
				Fragment: prefix + value + suffix,
				Value:    value,
				Suffix:   suffix,
				offset:   at,
			})
		}
		from = i + needleLen
	}
}

// suffixAt returns the delimiter at character i. It fails when the value
// before i continues into a longer one.
func (f finder) suffixAt(i int) (string, bool) {
	next := f.sc.Slice(i, i+1)
	if next == "" {
		return "", true
	}
	if strings.ContainsAny(f.doc.Decode(next), delimiters) {
		return next, true
	}
	return "", false
}

// previousOpener returns the adjoining text from the nearest opener to at.
func (f finder) previousOpener(at int) (string, bool) {
	prefix, ok := f.sc.PreviousAdjoiningStartingWith(f.opener[:1], at)
	if !ok {
		return "", false
	}
	decoded := f.doc.Decode(prefix)
	if !strings.HasPrefix(strings.ToLower(decoded), f.opener) ||
		strings.ContainsAny(decoded[1:], "<>") ||
		!f.adjoining.MatchString(decoded) {
		return "", false
	}
	return prefix, true
}

// accepts rebuilds the element from prefix through the next '>' (or the
// next '<' when the tag is left open) and passes it to accept.
func (f finder) accepts(prefix string, at int) bool {
	if f.accept == nil {
		return true
	}
	tail, _ := f.sc.NextAdjoiningEndingWith(">", at)
	rest := f.doc.Decode(tail)
	if tail == "" {
		rest = f.doc.Decode(f.sc.Slice(at, f.sc.Len()))
	}
	if i := strings.Index(rest, "<"); i >= 0 {
		rest = rest[:i]
	}
	tag := f.doc.Decode(prefix) + rest
	if !strings.HasSuffix(tag, ">") {
		tag += ">"
	}
	return f.accept(tag)
}

func ordered(refs []Reference) []Reference {
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].offset < refs[j].offset })
	return lo.UniqBy(refs, func(r Reference) string { return r.Fragment })
}
