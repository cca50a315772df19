package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ka2n/csswrap/api/config"
	"github.com/ka2n/csswrap/api/output"
	"github.com/samber/lo"
)

const (
	errorMark   = "✗"
	warningMark = "⚠"
	infoMark    = "·"
)

func mark(t output.MessageType) string {
	switch t {
	case output.TypeError:
		return errorMark
	case output.TypeWarning:
		return warningMark
	}
	return infoMark
}

func summary(out output.Output) string {
	switch {
	case out.HasException():
		return "exception: " + out.Exception
	case out.IncorrectUsage:
		return "the validator did not run (check the java and jar paths)"
	}
	status := lo.CoalesceOrEmpty(out.Response.Status, output.StatusPassed)
	return fmt.Sprintf("%s, %d error(s), %d warning(s)", status, out.ErrorCount(), out.WarningCount())
}

// writeText prints one line per message in file:line form.
func writeText(w io.Writer, out output.Output) error {
	for _, m := range out.Messages() {
		line := fmt.Sprintf("%s:%d: %s: %s", m.Ref, m.Line, m.Type, m.Title)
		if m.Context != "" {
			line += " (" + m.Context + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", out.Response.Ref, summary(out))
	return err
}

func writeJSON(w io.Writer, out output.Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// markdown renders the report grouped by resource, in first-seen order.
func markdown(out output.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# CSS validation of %s\n\n", out.Response.Ref)
	fmt.Fprintf(&b, "**%s**\n\n", summary(out))

	groups := lo.GroupBy(out.Messages(), func(m output.Message) string { return m.Ref })
	refs := lo.Uniq(lo.Map(out.Messages(), func(m output.Message, _ int) string { return m.Ref }))
	for _, ref := range refs {
		fmt.Fprintf(&b, "## %s\n\n", ref)
		for _, m := range groups[ref] {
			fmt.Fprintf(&b, "- %s **line %d** %s", mark(m.Type), m.Line, escapeMarkdown(m.Title))
			if m.Context != "" {
				fmt.Fprintf(&b, " `%s`", strings.ReplaceAll(m.Context, "`", "'"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func renderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}

// onlineValidatorURL returns the W3C online validator page for cfg.URL.
func onlineValidatorURL(cfg config.Config) string {
	q := url.Values{}
	q.Set("uri", cfg.URL)
	q.Set("profile", "css3")
	q.Set("usermedium", "all")
	q.Set("warning", lo.Ternary(cfg.IgnoreWarnings, "no", "1"))
	q.Set("vextwarning", lo.Ternary(cfg.VendorExtension == config.SeverityWarn, "true", "false"))
	return "https://jigsaw.w3.org/css-validator/validator?" + q.Encode()
}
