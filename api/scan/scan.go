// Package scan locates verbatim text fragments in raw documents.
//
// Positions are character indexes in the document's declared encoding, not
// byte offsets, so multi-byte content is handled the same way as ASCII.
// Fragments are returned in the document encoding and can be used for
// literal replacement in the original content.
package scan

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// NoOffset makes a search start from the end (backward) or the beginning
// (forward) of the content.
const NoOffset = -1

// Scanner holds content decoded into characters.
type Scanner struct {
	runes []rune
	enc   encoding.Encoding
}

// New decodes content using the named encoding. Unknown or empty encoding
// names are treated as UTF-8.
func New(content, encodingName string) *Scanner {
	s := &Scanner{enc: lookupEncoding(encodingName)}
	s.runes = s.decode(content)
	return s
}

func lookupEncoding(name string) encoding.Encoding {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil
	}
	return enc
}

func (s *Scanner) decode(str string) []rune {
	if s.enc == nil {
		return []rune(str)
	}
	decoded, err := s.enc.NewDecoder().String(str)
	if err != nil {
		return []rune(str)
	}
	return []rune(decoded)
}

func (s *Scanner) encode(r []rune) string {
	if s.enc == nil {
		return string(r)
	}
	encoded, err := s.enc.NewEncoder().String(string(r))
	if err != nil {
		return string(r)
	}
	return encoded
}

// Len returns the number of characters in the content.
func (s *Scanner) Len() int {
	return len(s.runes)
}

// Slice returns characters [start, end) in the content encoding.
func (s *Scanner) Slice(start, end int) string {
	start, end = s.clamp(start), s.clamp(end)
	if start >= end {
		return ""
	}
	return s.encode(s.runes[start:end])
}

// Index returns the character index of the first occurrence of target at or
// after from, or -1.
func (s *Scanner) Index(target string, from int) int {
	from = s.clamp(from)
	i := indexRunes(s.runes[from:], s.decode(target))
	if i < 0 {
		return -1
	}
	return from + i
}

// LastIndex returns the character index of the last occurrence of target
// that ends at or before end, or -1.
func (s *Scanner) LastIndex(target string, end int) int {
	return lastIndexRunes(s.runes[:s.clamp(end)], s.decode(target))
}

// PreviousAdjoiningStartingWith returns the text from the nearest occurrence
// of target up to offset. A negative offset means the end of the content.
func (s *Scanner) PreviousAdjoiningStartingWith(target string, offset int) (string, bool) {
	if offset < 0 || offset > len(s.runes) {
		offset = len(s.runes)
	}
	i := s.LastIndex(target, offset)
	if i < 0 {
		return "", false
	}
	return s.encode(s.runes[i:offset]), true
}

// NextAdjoiningEndingWith returns the text from offset up to and including
// the first following occurrence of target. A negative offset means the
// beginning of the content.
func (s *Scanner) NextAdjoiningEndingWith(target string, offset int) (string, bool) {
	offset = s.clamp(offset)
	t := s.decode(target)
	i := indexRunes(s.runes[offset:], t)
	if i < 0 {
		return "", false
	}
	return s.encode(s.runes[offset : offset+i+len(t)]), true
}

func (s *Scanner) clamp(i int) int {
	switch {
	case i < 0:
		return 0
	case i > len(s.runes):
		return len(s.runes)
	}
	return i
}

// FindPreviousAdjoiningStringStartingWith scans content backward from offset
// for target and returns target plus everything up to offset.
func FindPreviousAdjoiningStringStartingWith(content, target, encodingName string, offset int) (string, bool) {
	return New(content, encodingName).PreviousAdjoiningStartingWith(target, offset)
}

// FindNextAdjoiningStringEndingWith scans content forward from offset for
// target and returns everything from offset through target.
func FindNextAdjoiningStringEndingWith(content, target, encodingName string, offset int) (string, bool) {
	return New(content, encodingName).NextAdjoiningEndingWith(target, offset)
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if equalRunes(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

func lastIndexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := len(haystack) - n; i >= 0; i-- {
		if equalRunes(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
