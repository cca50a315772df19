package api

import (
	"context"
	"errors"

	"github.com/ka2n/csswrap/api/command"
	"github.com/ka2n/csswrap/api/config"
	"github.com/ka2n/csswrap/api/fetch"
	"github.com/ka2n/csswrap/api/output"
	"github.com/ka2n/csswrap/api/preparer"
	"github.com/ka2n/csswrap/api/source"
	"github.com/ka2n/csswrap/api/storage"
	"github.com/ka2n/csswrap/log"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

// Wrapper validates resources with the CSS validator jar.
type Wrapper struct {
	Fetcher  fetch.Fetcher
	Executor command.Executor
}

// NewWrapper returns a Wrapper fetching over HTTP with cfg's request
// options and running the validator through the shell.
func NewWrapper(cfg config.Config) *Wrapper {
	return &Wrapper{
		Fetcher: fetch.NewHTTPFetcher(fetch.Options{
			UserAgent: lo.CoalesceOrEmpty(cfg.UserAgent, UserAgent()),
			Timeout:   cfg.Timeout,
			Cookies:   cfg.Cookies,
			Username:  cfg.Username,
			Password:  cfg.Password,
		}),
		Executor: command.ShellExecutor{},
	}
}

// Validate validates cfg.URL, or cfg.Content when set. A root resource that
// cannot be fetched is reported as an exception output, not an error.
func (w *Wrapper) Validate(ctx context.Context, cfg config.Config) (output.Output, error) {
	return w.run(ctx, cfg, func(p *preparer.Preparer) (string, error) {
		if cfg.Content != "" {
			return p.PrepareContent(ctx, cfg.URL, cfg.Content)
		}
		return p.Prepare(ctx, cfg.URL)
	})
}

// ValidateSources validates cfg.URL using resources the caller already
// downloaded. Nothing is fetched.
func (w *Wrapper) ValidateSources(ctx context.Context, cfg config.Config, sources *source.Map) (output.Output, error) {
	return w.run(ctx, cfg, func(p *preparer.Preparer) (string, error) {
		return p.PrepareFromSources(ctx, cfg.URL, sources)
	})
}

func (w *Wrapper) run(ctx context.Context, cfg config.Config, prepare func(*preparer.Preparer) (string, error)) (output.Output, error) {
	logger := log.Logger.With("url", cfg.URL)

	st, err := storage.New(cfg.TempDir)
	if err != nil {
		return output.Output{}, err
	}
	p := preparer.New(w.Fetcher, st, cfg.Concurrency)
	defer func() {
		if err := p.Clear(); err != nil {
			logger.Warn("Failed to clean up", "error", err)
		}
	}()

	entry, err := prepare(p)
	if err != nil {
		var rootErr *preparer.RootError
		if errors.As(err, &rootErr) {
			logger.Info("Root resource unavailable", "reason", rootErr.Classification())
			return output.NewException(cfg.URL, rootErr.Classification()), nil
		}
		return output.Output{}, err
	}

	raw, err := w.Executor.Execute(ctx, command.Build(cfg, entry))
	if err != nil {
		return output.Output{}, err
	}
	if err := p.Clear(); err != nil {
		logger.Warn("Failed to clean up", "error", err)
	}

	var out output.Output
	switch cfg.Strategy {
	case config.StrategyRaw:
		out, err = output.Parse(output.ReconcileRawOutput(raw, cfg.URL, p.Sources()))
	default:
		out, err = output.Parse(raw)
		if p.Sources().Len() == 1 {
			// Only the root was stored, so every issue belongs to it.
			out = output.WithMessagesRefFromURL(output.WithResponseRef(out, cfg.URL), cfg.URL)
		} else {
			out = output.Reconcile(out, cfg.URL, p.Sources())
		}
	}
	if err != nil {
		return output.Output{}, failure.Wrap(err,
			failure.WithCode(ErrValidatorOutput),
			failure.Message("Failed to read the validator report"),
		)
	}

	out = output.AppendFailureMessages(out, p.Failures())
	out = output.Filter(out, cfg)
	logger.Debug("Validation finished",
		"errors", out.ErrorCount(),
		"warnings", out.WarningCount(),
	)
	return out, nil
}
