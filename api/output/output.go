// Package output models the CSS validator's ucn output and maps it back to
// the resources it was run against.
package output

import (
	"strings"

	"github.com/samber/lo"
)

type MessageType string

const (
	TypeInfo    MessageType = "info"
	TypeWarning MessageType = "warning"
	TypeError   MessageType = "error"
)

const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Option is one key=value pair of the options line the validator prints
// before its XML report.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Message struct {
	Type    MessageType `json:"type"`
	Ref     string      `json:"ref"`
	Line    int         `json:"line"`
	Context string      `json:"context"`
	Title   string      `json:"title"`
}

// isIssue reports whether m is a warning or an error.
func (m Message) isIssue() bool {
	return m.Type != TypeInfo
}

type ObservationResponse struct {
	Ref      string    `json:"ref"`
	Date     string    `json:"date,omitempty"`
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}

// Output is one validation result. Values are treated as immutable; every
// function in this package returns a modified copy.
type Output struct {
	Options  []Option            `json:"options"`
	Response ObservationResponse `json:"response"`

	// Exception classifies a fatal failure of the root resource.
	Exception string `json:"exception,omitempty"`

	// IncorrectUsage is set when the validator printed its usage banner
	// instead of a report.
	IncorrectUsage bool `json:"incorrect_usage,omitempty"`
}

// NewException returns the output of a run that never reached the
// validator.
func NewException(ref, classification string) Output {
	return Output{
		Response: ObservationResponse{
			Ref:      ref,
			Status:   StatusFailed,
			Messages: []Message{},
		},
		Exception: classification,
	}
}

func (o Output) HasException() bool {
	return o.Exception != ""
}

// Option returns the value of the named option.
func (o Output) Option(key string) (string, bool) {
	opt, ok := lo.Find(o.Options, func(opt Option) bool { return opt.Key == key })
	return opt.Value, ok
}

func (o Output) Messages() []Message {
	return o.Response.Messages
}

func (o Output) ErrorCount() int {
	return lo.CountBy(o.Response.Messages, func(m Message) bool { return m.Type == TypeError })
}

func (o Output) WarningCount() int {
	return lo.CountBy(o.Response.Messages, func(m Message) bool { return m.Type == TypeWarning })
}

// IsValid reports whether the run completed without errors.
func (o Output) IsValid() bool {
	return !o.HasException() && !o.IncorrectUsage && o.ErrorCount() == 0
}

// clone copies o deep enough that editing messages does not affect o.
func (o Output) clone() Output {
	c := o
	c.Options = append([]Option(nil), o.Options...)
	c.Response.Messages = append([]Message{}, o.Response.Messages...)
	return c
}

// withMessages returns a copy holding msgs with the status recomputed.
func (o Output) withMessages(msgs []Message) Output {
	c := o.clone()
	c.Response.Messages = msgs
	if c.Response.Status != "" {
		c.Response.Status = StatusPassed
		if c.ErrorCount() > 0 {
			c.Response.Status = StatusFailed
		}
	}
	return c
}

func parseMessageType(s string) MessageType {
	switch t := MessageType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeInfo, TypeWarning, TypeError:
		return t
	}
	return TypeInfo
}
