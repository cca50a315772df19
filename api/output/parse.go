package output

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/morikuni/failure/v2"
)

const usageBanner = "Usage: java"

// Parse reads the validator's ucn output: an options line in Java map
// notation followed by an observationresponse XML document.
func Parse(raw string) (Output, error) {
	var out Output

	rest := raw
	if line, after, ok := cutOptionsLine(raw); ok {
		out.Options = parseOptions(line)
		rest = after
	}

	start := strings.Index(rest, "<?xml")
	if start < 0 {
		start = strings.Index(rest, "<observationresponse")
	}
	if start < 0 {
		if strings.Contains(rest, usageBanner) {
			out.IncorrectUsage = true
			out.Response.Messages = []Message{}
			return out, nil
		}
		return Output{}, failure.New(ErrInvalidOutput,
			failure.Message("Validator output has no observation response"),
			failure.Context{"output": truncate(raw, 200)},
		)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(rest[start:]); err != nil {
		return Output{}, failure.Wrap(err,
			failure.WithCode(ErrInvalidOutput),
			failure.Message("Validator output is not well-formed XML"),
		)
	}
	root := doc.SelectElement("observationresponse")
	if root == nil {
		return Output{}, failure.New(ErrInvalidOutput,
			failure.Message("Validator output has no observation response"),
		)
	}

	out.Response = ObservationResponse{
		Ref:      root.SelectAttrValue("ref", ""),
		Date:     root.SelectAttrValue("date", ""),
		Messages: []Message{},
	}
	if status := root.SelectElement("status"); status != nil {
		out.Response.Status = status.SelectAttrValue("value", "")
	}
	for _, el := range root.SelectElements("message") {
		out.Response.Messages = append(out.Response.Messages, parseMessage(el))
	}
	return out, nil
}

func parseMessage(el *etree.Element) Message {
	m := Message{
		Type: parseMessageType(el.SelectAttrValue("type", "")),
		Ref:  el.SelectAttrValue("ref", ""),
	}
	if ctx := el.SelectElement("context"); ctx != nil {
		m.Line, _ = strconv.Atoi(strings.TrimSpace(ctx.SelectAttrValue("line", "0")))
		m.Context = strings.TrimSpace(ctx.Text())
	}
	if title := el.SelectElement("title"); title != nil {
		m.Title = strings.TrimSpace(title.Text())
	}
	return m
}

// cutOptionsLine splits off a leading "{k=v, ...}" line.
func cutOptionsLine(raw string) (string, string, bool) {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	line, rest, _ := strings.Cut(trimmed, "\n")
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return "", raw, false
	}
	return line, rest, true
}

func parseOptions(line string) []Option {
	body := strings.TrimSuffix(strings.TrimPrefix(line, "{"), "}")
	var opts []Option
	for _, pair := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		opts = append(opts, Option{Key: k, Value: v})
	}
	return opts
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
