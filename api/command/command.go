// Package command builds and runs the CSS validator command line.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/ka2n/csswrap/api/config"
	"github.com/ka2n/csswrap/log"
	"github.com/morikuni/failure/v2"
)

type ErrorCode string

const (
	ErrExecute ErrorCode = "Execute"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")

// Build returns the shell command validating uri. Vendor extensions are
// reported as warnings only when the severity is warn.
func Build(cfg config.Config, uri string) string {
	vext := "false"
	if cfg.VendorExtension == config.SeverityWarn {
		vext = "true"
	}
	return cfg.Java + " -jar " + cfg.Jar +
		" -output ucn -vextwarning " + vext +
		` "` + quoteEscaper.Replace(uri) + `" 2>&1`
}

// Executor runs a command line and returns everything it printed.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, command string) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// ShellExecutor runs commands through sh -c.
type ShellExecutor struct {
	// Shell defaults to "sh".
	Shell string
}

func (e ShellExecutor) Execute(ctx context.Context, command string) (string, error) {
	shell := e.Shell
	if shell == "" {
		shell = "sh"
	}
	logger := log.Logger.With("cmd", command)
	logger.Debug("Executing command")

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// The validator exits non-zero on usage errors; its output is
			// still what the caller needs to parse.
			logger.Warn("Command failed", "error", exitErr.Error())
			return out.String(), nil
		}
		logger.Error("Command error", "error", err.Error())
		return out.String(), failure.Wrap(err,
			failure.WithCode(ErrExecute),
			failure.Context{"cmd": command},
		)
	}
	logger.Debug("Command completed successfully")
	return out.String(), nil
}
