package document

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Prelude holds the @charset and @import items at the start of a stylesheet.
type Prelude struct {
	Charset string
	Imports []string
}

// ParseCSSPrelude reads the leading @charset and @import rules of a
// stylesheet. Parsing stops at the first other rule.
func ParseCSSPrelude(content string) Prelude {
	var prelude Prelude
	p := css.NewParser(parse.NewInputString(content), false)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return prelude
		case css.CommentGrammar, css.TokenGrammar:
			continue
		case css.AtRuleGrammar:
			switch {
			case bytes.EqualFold(data, []byte("@charset")):
				prelude.Charset = firstString(p.Values())
				continue
			case bytes.EqualFold(data, []byte("@import")):
				if u := importURL(p.Values()); u != "" {
					prelude.Imports = append(prelude.Imports, u)
				}
				continue
			}
		}
		return prelude
	}
}

func firstString(tokens []css.Token) string {
	for _, t := range tokens {
		if t.TokenType == css.StringToken {
			return unquote(string(t.Data))
		}
	}
	return ""
}

// importURL extracts the URL of @import "a.css", @import url("a.css") and
// @import url(a.css).
func importURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
