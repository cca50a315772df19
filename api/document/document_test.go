package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		contentType string
		body        string
		wantMedia   string
		wantCharset string
		wantBase    string
		wantExt     string
	}{
		{
			name:        "html with header charset",
			uri:         "http://example.com/a/page.html",
			contentType: "text/html; charset=ISO-8859-1",
			body:        "<html><head></head></html>",
			wantMedia:   MediaTypeHTML,
			wantCharset: "windows-1252",
			wantBase:    "http://example.com/a/page.html",
			wantExt:     "html",
		},
		{
			name:        "html with meta charset and base",
			uri:         "http://example.com/a/page.html",
			contentType: "text/html",
			body:        `<html><head><meta charset="utf-8"><base href="/assets/"></head><body></body></html>`,
			wantMedia:   MediaTypeHTML,
			wantCharset: "utf-8",
			wantBase:    "http://example.com/assets/",
			wantExt:     "html",
		},
		{
			name:        "base after body is ignored",
			uri:         "http://example.com/",
			contentType: "text/html",
			body:        `<body><base href="http://other.example/"></body>`,
			wantMedia:   MediaTypeHTML,
			wantCharset: "utf-8",
			wantBase:    "http://example.com/",
			wantExt:     "html",
		},
		{
			name:        "css with @charset",
			uri:         "http://example.com/style.css",
			contentType: "text/css",
			body:        `@charset "iso-8859-15"; body { color: red }`,
			wantMedia:   MediaTypeCSS,
			wantCharset: "iso-8859-15",
			wantBase:    "http://example.com/style.css",
			wantExt:     "css",
		},
		{
			name:        "other media type",
			uri:         "http://example.com/data.json",
			contentType: "Application/JSON",
			body:        `{}`,
			wantMedia:   "application/json",
			wantCharset: "utf-8",
			wantBase:    "http://example.com/data.json",
			wantExt:     "json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.uri, tt.contentType, []byte(tt.body))
			got := []string{d.MediaType(), d.Charset(), d.BaseURI(), d.Extension()}
			want := []string{tt.wantMedia, tt.wantCharset, tt.wantBase, tt.wantExt}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("New() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDocument_TextAndEncode(t *testing.T) {
	body, _ := charmap.Windows1252.NewEncoder().String("<p>café</p>")
	d := New("http://example.com/", "text/html; charset=windows-1252", []byte(body))

	if got, want := d.Text(), "<p>café</p>"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got := d.Encode("é"); got != "\xe9" {
		t.Errorf("Encode() = %q, want latin byte", got)
	}
}

func TestDocument_WithContent(t *testing.T) {
	d := New("http://example.com/", "text/html", []byte("<p>a</p>"))
	c := d.WithContent("<p>b</p>")

	if d.Content() != "<p>a</p>" {
		t.Errorf("original mutated: %q", d.Content())
	}
	if c.Content() != "<p>b</p>" || c.URI() != d.URI() || c.Charset() != d.Charset() {
		t.Errorf("WithContent() = %+v", c)
	}
	if d.Equal(c) {
		t.Error("Equal() reported different content as equal")
	}
	if !c.Equal(d.WithContent("<p>b</p>")) {
		t.Error("Equal() reported equal content as different")
	}
}

func TestDetectContentType(t *testing.T) {
	if got := DetectContentType("<!DOCTYPE html><p>x</p>"); got != MediaTypeHTML {
		t.Errorf("got %q for markup", got)
	}
	if got := DetectContentType("a > b { color: red }"); got != MediaTypeCSS {
		t.Errorf("got %q for css", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://example.com/a/b.html", "c.css", "http://example.com/a/c.css"},
		{"http://example.com/a/b.html", " /c.css#frag ", "http://example.com/c.css"},
		{"http://example.com/a/b.html", "//cdn.example.com/x.css?v=1&w=2", "http://cdn.example.com/x.css?v=1&w=2"},
		{"http://example.com/", "https://other.example/y.css", "https://other.example/y.css"},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.base, tt.ref)
		if err != nil {
			t.Fatalf("Resolve(%q, %q) error = %v", tt.base, tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}

func TestParseCSSPrelude(t *testing.T) {
	content := `@charset "utf-8";
/* comment */
@import "one.css";
@import url("two.css") screen;
@import url(three.css);
body { color: red }
@import "ignored.css";`

	want := Prelude{
		Charset: "utf-8",
		Imports: []string{"one.css", "two.css", "three.css"},
	}
	if diff := cmp.Diff(want, ParseCSSPrelude(content)); diff != "" {
		t.Errorf("ParseCSSPrelude() mismatch (-want +got):\n%s", diff)
	}
}
