package cli

import (
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
)

type format string

const (
	formatText     format = "text"
	formatMarkdown format = "markdown"
	formatJSON     format = "json"
)

// formatFlag selects how the report is printed.
type formatFlag struct {
	IsSet bool
	Value format
}

// String implements pflag.Value.
func (f *formatFlag) String() string {
	return string(f.Value)
}

func (f *formatFlag) Set(value string) error {
	switch v := format(strings.ToLower(value)); v {
	case formatText, formatMarkdown, formatJSON:
		f.Value = v
		f.IsSet = true
		return nil
	}
	return failure.New(InvalidFormat,
		failure.Message("Format must be one of text, markdown, json"),
		failure.Context{"format": value},
	)
}

func (f *formatFlag) Type() string {
	return "format"
}

var _ pflag.Value = &formatFlag{}
