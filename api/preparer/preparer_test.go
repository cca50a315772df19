package preparer

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/csswrap/api/fetch"
	"github.com/ka2n/csswrap/api/mutator"
	"github.com/ka2n/csswrap/api/source"
	"github.com/ka2n/csswrap/api/storage"
	"github.com/morikuni/failure/v2"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fetch.Outcome
	calls     map[string]int
}

func newFakeFetcher(responses ...fetch.Outcome) *fakeFetcher {
	f := &fakeFetcher{responses: map[string]fetch.Outcome{}, calls: map[string]int{}}
	for _, o := range responses {
		f.responses[o.URI] = o
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) fetch.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[uri]++
	if o, ok := f.responses[uri]; ok {
		return o
	}
	return fetch.HTTPError(uri, 404)
}

func htmlPage(uri, body string) fetch.Outcome {
	return fetch.Success(uri, []byte(body), "text/html; charset=utf-8")
}

func css(uri, body string) fetch.Outcome {
	return fetch.Success(uri, []byte(body), "text/css")
}

func newPreparer(t *testing.T, f fetch.Fetcher, concurrency int) (*Preparer, *storage.Storage) {
	t.Helper()
	st, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(f, st, concurrency), st
}

func readEntry(t *testing.T, entry string) string {
	t.Helper()
	if !strings.HasPrefix(entry, source.LocalScheme) {
		t.Fatalf("entry %q is not a local URI", entry)
	}
	b, err := os.ReadFile(strings.TrimPrefix(entry, source.LocalScheme))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func localURI(t *testing.T, p *Preparer, uri string) string {
	t.Helper()
	s, ok := p.Sources().Get(uri)
	if !ok || !s.IsAvailable() {
		t.Fatalf("source %q not available: %+v", uri, s)
	}
	return s.LocalURI
}

func TestPrepare_NoLinkedResources(t *testing.T) {
	page := `<html><head><title>t</title></head><body><p>plain</p></body></html>`
	p, st := newPreparer(t, newFakeFetcher(htmlPage("http://example.com/", page)), 1)

	entry, err := p.Prepare(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := st.Paths(); len(got) != 1 || source.LocalScheme+got[0] != entry {
		t.Errorf("stored paths = %v, entry = %q; want exactly the entry", got, entry)
	}
	if got := readEntry(t, entry); got != page {
		t.Errorf("entry content = %q, want %q", got, page)
	}
	if p.State() != StateReady {
		t.Errorf("State() = %v, want %v", p.State(), StateReady)
	}
}

func TestPrepare_FetchesEachURLOnce(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="/style.css">
<link rel="stylesheet" href="style.css">
<link rel="stylesheet" href="http://example.com/style.css#top">
</head></html>`
	f := newFakeFetcher(
		htmlPage("http://example.com/", page),
		css("http://example.com/style.css", "body{}"),
	)
	p, _ := newPreparer(t, f, 4)

	entry, err := p.Prepare(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := f.calls["http://example.com/style.css"]; got != 1 {
		t.Errorf("fetches of style.css = %d, want 1", got)
	}

	local := localURI(t, p, "http://example.com/style.css")
	want := `<html><head>
<link rel="stylesheet" href="` + local + `">
<link rel="stylesheet" href="` + local + `">
<link rel="stylesheet" href="` + local + `">
</head></html>`
	if diff := cmp.Diff(want, readEntry(t, entry)); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare_PartialFailures(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="/ok1.css">
<link rel="stylesheet" href="/missing.css">
<link rel="stylesheet" href="/ok2.css">
<link rel="stylesheet" href="http://down.invalid/x.css">
<link rel="stylesheet" href="/text.txt">
</head><body></body></html>`
	f := newFakeFetcher(
		htmlPage("http://example.com/", page),
		css("http://example.com/ok1.css", "a{}"),
		css("http://example.com/ok2.css", "b{}"),
		fetch.TransportError("http://down.invalid/x.css", fetch.CodeResolveHost, errors.New("no such host")),
		fetch.Success("http://example.com/text.txt", []byte("hello"), "text/plain"),
	)

	for _, concurrency := range []int{1, 3} {
		p, _ := newPreparer(t, f, concurrency)
		entry, err := p.Prepare(context.Background(), "http://example.com/")
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}

		want := `<html><head>
<link rel="stylesheet" href="` + localURI(t, p, "http://example.com/ok1.css") + `">
<link rel="stylesheet" href="about:blank">
<link rel="stylesheet" href="` + localURI(t, p, "http://example.com/ok2.css") + `">
<link rel="stylesheet" href="about:blank">
<link rel="stylesheet" href="about:blank">
</head><body></body></html>`
		if diff := cmp.Diff(want, readEntry(t, entry)); diff != "" {
			t.Errorf("entry mismatch (-want +got):\n%s", diff)
		}

		messages := func(outcomes []fetch.Outcome) []string {
			var ms []string
			for _, o := range outcomes {
				ms = append(ms, o.URI+" "+o.Message())
			}
			return ms
		}
		if diff := cmp.Diff([]string{
			"http://example.com/missing.css http-error:404",
			"http://example.com/text.txt invalid-content-type:text/plain",
		}, messages(p.HTTPFailures())); diff != "" {
			t.Errorf("HTTPFailures() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{
			"http://down.invalid/x.css curl-error:6",
		}, messages(p.TransportFailures())); diff != "" {
			t.Errorf("TransportFailures() mismatch (-want +got):\n%s", diff)
		}
		if len(p.Failures()) != 3 || !p.HasHTTPFailures() || !p.HasTransportFailures() {
			t.Errorf("Failures() = %v", messages(p.Failures()))
		}
	}
}

func TestPrepare_RootErrors(t *testing.T) {
	tests := []struct {
		name    string
		outcome fetch.Outcome
		want    string
	}{
		{
			name:    "http error",
			outcome: fetch.HTTPError("http://example.com/", 503),
			want:    "http503",
		},
		{
			name:    "transport error",
			outcome: fetch.TransportError("http://example.com/", fetch.CodeConnect, errors.New("refused")),
			want:    "curl7",
		},
		{
			name:    "invalid content type",
			outcome: fetch.Success("http://example.com/", []byte{0x89, 'P', 'N', 'G'}, "image/png"),
			want:    "invalid-content-type:image/png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, st := newPreparer(t, newFakeFetcher(tt.outcome), 1)
			_, err := p.Prepare(context.Background(), "http://example.com/")

			var rootErr *RootError
			if !errors.As(err, &rootErr) {
				t.Fatalf("Prepare() error = %v, want *RootError", err)
			}
			if got := rootErr.Classification(); got != tt.want {
				t.Errorf("Classification() = %q, want %q", got, tt.want)
			}
			if len(st.Paths()) != 0 {
				t.Errorf("stored paths = %v, want none", st.Paths())
			}
		})
	}
}

func TestPrepare_MalformedMarkup(t *testing.T) {
	page := "<html><head>\n<link rel=\"stylesheet\" href=\"/a.css\"\n<link rel=stylesheet href=/b.css>\n<p <<>"
	f := newFakeFetcher(
		htmlPage("http://example.com/", page),
		css("http://example.com/a.css", "a{}"),
		css("http://example.com/b.css", "b{}"),
	)
	p, _ := newPreparer(t, f, 1)

	entry, err := p.Prepare(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	got := readEntry(t, entry)
	if !strings.Contains(got, `href="`+localURI(t, p, "http://example.com/a.css")+`"`) {
		t.Errorf("a.css was not localized:\n%s", got)
	}
}

func TestPrepare_LocalizesImports(t *testing.T) {
	page := `<link rel="stylesheet" href="/css/main.css"><p>x</p>`
	f := newFakeFetcher(
		htmlPage("http://example.com/", page),
		css("http://example.com/css/main.css", "@import \"reset.css\";\n@import url(gone.css);\nbody{}"),
		css("http://example.com/css/reset.css", "@import \"deeper.css\";\n*{}"),
	)
	p, _ := newPreparer(t, f, 2)

	entry, err := p.Prepare(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	mainLocal := localURI(t, p, "http://example.com/css/main.css")
	if got, want := readEntry(t, entry), `<link rel="stylesheet" href="`+mainLocal+`"><p>x</p>`; got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}

	resetLocal := localURI(t, p, "http://example.com/css/reset.css")
	wantMain := "@import \"" + resetLocal + "\";\n@import url(" + mutator.Placeholder + ");\nbody{}"
	if diff := cmp.Diff(wantMain, readEntry(t, mainLocal)); diff != "" {
		t.Errorf("main.css mismatch (-want +got):\n%s", diff)
	}
	if got := readEntry(t, resetLocal); got != "@import \"deeper.css\";\n*{}" {
		t.Errorf("reset.css = %q, nested imports must stay untouched", got)
	}
	if f.calls["http://example.com/css/deeper.css"] != 0 {
		t.Error("nested import was fetched")
	}
	if diff := cmp.Diff([]string{"http://example.com/css/gone.css"}, urisOf(p.HTTPFailures())); diff != "" {
		t.Errorf("HTTPFailures() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareContent_CSS(t *testing.T) {
	f := newFakeFetcher(css("http://example.com/base.css", "html{}"))
	p, _ := newPreparer(t, f, 1)

	entry, err := p.PrepareContent(context.Background(), "http://example.com/main.css", `@import "base.css"; a { color: red }`)
	if err != nil {
		t.Fatalf("PrepareContent() error = %v", err)
	}
	want := `@import "` + localURI(t, p, "http://example.com/base.css") + `"; a { color: red }`
	if got := readEntry(t, entry); got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}
	if !strings.HasSuffix(entry, ".css") {
		t.Errorf("entry %q should be stored as css", entry)
	}
	if f.calls["http://example.com/main.css"] != 0 {
		t.Error("supplied content must not be fetched")
	}
}

func TestPrepareFromSources(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := dir + "/" + name
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	page := `<link rel="stylesheet" href="a.css"><link rel="stylesheet" href="b.css">`
	caller, err := source.NewMap(
		source.FromPath("http://example.com/", write("root.html", page)),
		source.FromPath("http://example.com/a.css", write("a.css", "a{}")),
		source.New("http://example.com/b.css", ""),
	)
	if err != nil {
		t.Fatal(err)
	}

	f := newFakeFetcher()
	p, _ := newPreparer(t, f, 1)
	entry, err := p.PrepareFromSources(context.Background(), "http://example.com/", caller)
	if err != nil {
		t.Fatalf("PrepareFromSources() error = %v", err)
	}

	aLocal := localURI(t, p, "http://example.com/a.css")
	if orig, _ := caller.Get("http://example.com/a.css"); aLocal == orig.LocalURI {
		t.Error("available source was not duplicated")
	}
	want := `<link rel="stylesheet" href="` + aLocal + `"><link rel="stylesheet" href="about:blank">`
	if got := readEntry(t, entry); got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}
	if len(f.calls) != 0 {
		t.Errorf("fetcher called: %v", f.calls)
	}

	missing, _ := source.NewMap(source.FromPath("http://example.com/", write("root2.html", page)))
	p2, _ := newPreparer(t, f, 1)
	if _, err := p2.PrepareFromSources(context.Background(), "http://example.com/", missing); !failure.Is(err, ErrUnknownSource) {
		t.Errorf("PrepareFromSources() error = %v, want %v", err, ErrUnknownSource)
	}
}

func TestClear(t *testing.T) {
	page := `<link rel="stylesheet" href="/a.css">`
	f := newFakeFetcher(htmlPage("http://example.com/", page), css("http://example.com/a.css", "a{}"))
	p, st := newPreparer(t, f, 1)
	if _, err := p.Prepare(context.Background(), "http://example.com/"); err != nil {
		t.Fatal(err)
	}
	paths := st.Paths()
	if len(paths) != 3 {
		t.Fatalf("stored paths = %v, want root, stylesheet and rewritten root", paths)
	}

	if err := p.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists", path)
		}
	}
	if err := p.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}

	if _, err := p.Prepare(context.Background(), "http://example.com/"); !failure.Is(err, ErrAlreadyUsed) {
		t.Errorf("second Prepare() error = %v, want %v", err, ErrAlreadyUsed)
	}
}

func urisOf(outcomes []fetch.Outcome) []string {
	var uris []string
	for _, o := range outcomes {
		uris = append(uris, o.URI)
	}
	return uris
}
