// Package mutator rewrites document references to point at local copies.
package mutator

import (
	"html"
	"strings"

	"github.com/ka2n/csswrap/api/document"
	"github.com/ka2n/csswrap/api/inspector"
	"github.com/ka2n/csswrap/api/source"
	"github.com/ka2n/csswrap/log"
)

// Placeholder replaces references that cannot point at a local copy.
const Placeholder = "about:blank"

// ReplaceStylesheetURLs rewrites every reference of refs in doc.
//
// A reference whose value resolves to an available source is pointed at the
// source's local URI. Blank values and sources that failed to fetch are
// pointed at Placeholder. Values unknown to sources are left as they are.
//
// When refs is empty doc itself is returned; otherwise the result is always
// a new Document and doc is not modified.
func ReplaceStylesheetURLs(doc *document.Document, sources *source.Map, refs []inspector.Reference) *document.Document {
	if len(refs) == 0 {
		return doc
	}

	content := doc.Content()
	for _, ref := range refs {
		replacement, ok := replacementFor(doc, sources, ref)
		if !ok {
			log.Debug("No source for reference", "uri", doc.URI(), "fragment", ref.Fragment)
			continue
		}
		rewritten := ref.Prefix() + doc.Encode(replacement) + ref.Suffix
		content = strings.ReplaceAll(content, ref.Fragment, rewritten)
	}
	return doc.WithContent(content)
}

// ReplaceImportURLs rewrites the @import references of a CSS document.
func ReplaceImportURLs(doc *document.Document, sources *source.Map, refs []inspector.Reference) *document.Document {
	return ReplaceStylesheetURLs(doc, sources, refs)
}

func replacementFor(doc *document.Document, sources *source.Map, ref inspector.Reference) (string, bool) {
	value := html.UnescapeString(doc.Decode(ref.Value))
	if strings.TrimSpace(value) == "" {
		return Placeholder, true
	}
	uri, err := document.Resolve(doc.BaseURI(), value)
	if err != nil {
		return "", false
	}
	s, ok := sources.Get(uri)
	if !ok {
		return "", false
	}
	if !s.IsAvailable() {
		return Placeholder, true
	}
	return s.LocalURI, true
}
