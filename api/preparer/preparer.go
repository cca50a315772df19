// Package preparer localizes a resource and everything it links to so the
// validator can run against local files only.
package preparer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ka2n/csswrap/api/document"
	"github.com/ka2n/csswrap/api/fetch"
	"github.com/ka2n/csswrap/api/inspector"
	"github.com/ka2n/csswrap/api/mutator"
	"github.com/ka2n/csswrap/api/source"
	"github.com/ka2n/csswrap/api/storage"
	"github.com/ka2n/csswrap/log"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Preparer runs once: create one per validation.
type Preparer struct {
	fetcher     *fetch.Memo
	storage     *storage.Storage
	sources     *source.Map
	concurrency int

	state    State
	root     *document.Document
	entryURI string
	failures failureSet
	cleared  bool
}

// New returns a Preparer fetching through f (memoized) and storing into st.
// concurrency bounds parallel fetches of linked resources; values below 1
// mean sequential.
func New(f fetch.Fetcher, st *storage.Storage, concurrency int) *Preparer {
	sources, _ := source.NewMap()
	return &Preparer{
		fetcher:     fetch.NewMemo(f),
		storage:     st,
		sources:     sources,
		concurrency: max(concurrency, 1),
	}
}

func (p *Preparer) State() State { return p.state }

// EntryURI is the file: URI the validator should read. Empty until Ready.
func (p *Preparer) EntryURI() string { return p.entryURI }

// Sources maps every remote URI of this run to its local copy.
func (p *Preparer) Sources() *source.Map { return p.sources }

// Root returns the root document, or nil before it was fetched.
func (p *Preparer) Root() *document.Document { return p.root }

// HTTPFailures lists linked resources that answered with an error status or
// an unusable content type, in the order they were encountered.
func (p *Preparer) HTTPFailures() []fetch.Outcome {
	return p.failures.list(fetch.KindHTTPError)
}

func (p *Preparer) HasHTTPFailures() bool {
	return len(p.HTTPFailures()) > 0
}

// TransportFailures lists linked resources that could not be fetched at all.
func (p *Preparer) TransportFailures() []fetch.Outcome {
	return p.failures.list(fetch.KindTransportError)
}

func (p *Preparer) HasTransportFailures() bool {
	return len(p.TransportFailures()) > 0
}

// Failures lists every linked failure in the order encountered.
func (p *Preparer) Failures() []fetch.Outcome {
	return p.failures.list()
}

// Prepare fetches uri and its linked stylesheets and returns the entry URI.
// A root that cannot be used yields a *RootError.
func (p *Preparer) Prepare(ctx context.Context, uri string) (string, error) {
	if err := p.begin(); err != nil {
		return "", err
	}
	root, err := p.fetchRoot(ctx, uri)
	if err != nil {
		return "", err
	}
	return p.prepare(ctx, root, p.resolveByFetching)
}

// PrepareContent is Prepare for caller-supplied content: HTML when it
// contains markup, CSS otherwise.
func (p *Preparer) PrepareContent(ctx context.Context, uri, content string) (string, error) {
	if err := p.begin(); err != nil {
		return "", err
	}
	p.state = StateRootFetched
	root := document.New(uri, document.DetectContentType(content), []byte(content))
	return p.prepare(ctx, root, p.resolveByFetching)
}

// PrepareFromSources prepares uri from resources the caller already
// downloaded. Every resource, the root included, must be present in
// sources; available ones are copied, unavailable ones point at the
// placeholder.
func (p *Preparer) PrepareFromSources(ctx context.Context, uri string, sources *source.Map) (string, error) {
	if err := p.begin(); err != nil {
		return "", err
	}
	src, ok := sources.Get(uri)
	if !ok || !src.IsAvailable() {
		return "", failure.New(ErrUnknownSource,
			failure.Message("Root resource is not available in the source map"),
			failure.Context{"uri": uri},
		)
	}
	body, err := os.ReadFile(src.LocalPath())
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrUnknownSource), failure.Context{"uri": uri})
	}
	p.state = StateRootFetched

	contentType := document.DetectContentType(string(body))
	switch extension(src.LocalPath(), "") {
	case "css":
		contentType = document.MediaTypeCSS
	case "html", "htm":
		contentType = document.MediaTypeHTML
	}
	root := document.New(uri, contentType, body)

	return p.prepare(ctx, root, func(ctx context.Context, uris []string) error {
		return p.resolveFromSources(uris, sources)
	})
}

// Clear deletes every file written by this run. Only the first call does
// anything.
func (p *Preparer) Clear() error {
	if p.cleared {
		return nil
	}
	p.cleared = true
	return p.storage.DeleteAll()
}

func (p *Preparer) begin() error {
	if p.state != StateInitial {
		return failure.New(ErrAlreadyUsed,
			failure.Message("Preparer has already been used"),
			failure.Context{"state": p.state.String()},
		)
	}
	return nil
}

func (p *Preparer) fetchRoot(ctx context.Context, uri string) (*document.Document, error) {
	o := p.fetcher.Fetch(ctx, uri)
	p.state = StateRootFetched
	if !o.OK() {
		return nil, &RootError{Outcome: o}
	}
	contentType := o.ContentType
	if contentType == "" {
		contentType = document.DetectContentType(string(o.Content))
	}
	root := document.New(uri, contentType, o.Content)
	if !root.IsHTML() && !root.IsCSS() {
		return nil, &RootError{Outcome: o.RejectContentType()}
	}
	return root, nil
}

type resolveFunc func(ctx context.Context, uris []string) error

func (p *Preparer) prepare(ctx context.Context, root *document.Document, resolve resolveFunc) (string, error) {
	logger := log.Logger.With("uri", root.URI())
	p.root = root

	rootPath, err := p.store(root)
	if err != nil {
		return "", err
	}

	var refs []inspector.Reference
	var uris []string
	if root.IsHTML() {
		uris = inspector.FindStylesheetURLs(root)
		refs = inspector.FindStylesheetReferences(root)
	} else {
		uris = inspector.FindImportURLs(root)
		refs = inspector.FindImportReferences(root)
	}
	uris = lo.Without(uris, root.URI())
	p.state = StateStylesheetsDiscovered
	logger.Debug("Discovered linked resources", "count", len(uris))

	if err := resolve(ctx, uris); err != nil {
		return "", err
	}
	p.state = StateLinkedResourcesResolved

	var rewritten *document.Document
	if root.IsHTML() {
		rewritten = mutator.ReplaceStylesheetURLs(root, p.sources, refs)
	} else {
		rewritten = mutator.ReplaceImportURLs(root, p.sources, refs)
	}
	p.state = StateDocumentRewritten

	entryPath := rootPath
	if rewritten != root && !rewritten.Equal(root) {
		if entryPath, err = p.store(rewritten); err != nil {
			return "", err
		}
	}
	p.entryURI = source.LocalScheme + entryPath
	p.state = StateReady

	logger.Debug("Prepared resource",
		"entry", p.entryURI,
		"sources", p.sources.Len(),
		"failures", len(p.failures.keys),
	)
	return p.entryURI, nil
}

// resolveByFetching fetches every linked resource, then the @import targets
// of the stylesheets that were fetched. Imports of imports stay remote.
func (p *Preparer) resolveByFetching(ctx context.Context, uris []string) error {
	linked, err := p.fetchAll(ctx, uris)
	if err != nil {
		return err
	}

	type importing struct {
		doc  *document.Document
		refs []inspector.Reference
	}
	var withImports []importing
	var imported []string
	for _, o := range linked {
		doc, ok := p.accept(o)
		if !ok {
			continue
		}
		if _, err := p.store(doc); err != nil {
			return err
		}
		if refs := inspector.FindImportReferences(doc); len(refs) > 0 {
			withImports = append(withImports, importing{doc: doc, refs: refs})
			imported = append(imported, inspector.FindImportURLs(doc)...)
		}
	}
	if len(withImports) == 0 {
		return nil
	}

	imported = lo.Filter(lo.Uniq(imported), func(u string, _ int) bool {
		_, known := p.sources.Get(u)
		return !known && u != p.root.URI()
	})
	imports, err := p.fetchAll(ctx, imported)
	if err != nil {
		return err
	}
	for _, o := range imports {
		if doc, ok := p.accept(o); ok {
			if _, err := p.store(doc); err != nil {
				return err
			}
		}
	}

	for _, w := range withImports {
		rewritten := mutator.ReplaceImportURLs(w.doc, p.sources, w.refs)
		if rewritten.Equal(w.doc) {
			continue
		}
		if _, err := p.store(rewritten); err != nil {
			return err
		}
	}
	return nil
}

// fetchAll fetches uris with bounded parallelism. Results keep the order of
// uris.
func (p *Preparer) fetchAll(ctx context.Context, uris []string) ([]fetch.Outcome, error) {
	results := make([]fetch.Outcome, len(uris))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, u := range uris {
		g.Go(func() error {
			results[i] = p.fetcher.Fetch(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, failure.Wrap(err)
	}
	return results, nil
}

// accept turns a linked outcome into a stylesheet, or records the failure
// and marks the resource unavailable.
func (p *Preparer) accept(o fetch.Outcome) (*document.Document, bool) {
	if o.OK() {
		mt := o.MediaType()
		if mt == "" || mt == document.MediaTypeCSS {
			return document.New(o.URI, lo.CoalesceOrEmpty(o.ContentType, document.MediaTypeCSS), o.Content), true
		}
		o = o.RejectContentType()
	}
	log.Info("Linked resource unavailable", "uri", o.URI, "reason", o.Message())
	p.failures.add(o)
	if _, known := p.sources.Get(o.URI); !known {
		_ = p.sources.Set(o.URI, source.New(o.URI, ""))
	}
	return nil, false
}

func (p *Preparer) resolveFromSources(uris []string, sources *source.Map) error {
	for _, u := range uris {
		src, ok := sources.Get(u)
		if !ok {
			return failure.New(ErrUnknownSource,
				failure.Message("Linked resource is missing from the source map"),
				failure.Context{"uri": u},
			)
		}
		if !src.IsAvailable() {
			_ = p.sources.Set(u, source.New(u, ""))
			continue
		}
		if _, err := p.storage.Duplicate(p.sources, u, src.LocalPath(), extension(src.LocalPath(), "css")); err != nil {
			return failure.Wrap(err, failure.WithCode(ErrStore))
		}
	}
	return nil
}

func (p *Preparer) store(doc *document.Document) (string, error) {
	path, err := p.storage.Store(p.sources, doc.URI(), doc.Bytes(), doc.Extension())
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrStore))
	}
	return path, nil
}

func extension(path, fallback string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return fallback
}
