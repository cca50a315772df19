package config

import (
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
)

// Severity controls how vendor-extension issues are reported.
type Severity string

const (
	SeverityWarn   Severity = "warn"
	SeverityError  Severity = "error"
	SeverityIgnore Severity = "ignore"
)

var severities = []Severity{SeverityWarn, SeverityError, SeverityIgnore}

// ParseSeverity parses warn, error or ignore (case-insensitive).
func ParseSeverity(s string) (Severity, error) {
	v := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, sv := range severities {
		if v == sv {
			return v, nil
		}
	}
	return "", failure.New(ErrInvalidSeverity,
		failure.Message("Vendor extension severity must be one of warn, error, ignore"),
		failure.Context{"severity": s},
	)
}

// String implements pflag.Value.
func (s *Severity) String() string {
	return string(*s)
}

func (s *Severity) Set(value string) error {
	v, err := ParseSeverity(value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *Severity) Type() string {
	return "severity"
}

var _ pflag.Value = new(Severity)
