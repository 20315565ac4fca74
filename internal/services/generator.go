package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
)

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewTextGenerator constructs the configured provider, wrapped with timeout,
// retry and rate limiting. Called once at server startup.
func NewTextGenerator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (TextGenerator, error) {
	var (
		inner TextGenerator
		err   error
	)

	switch cfg.Provider {
	case "gemini":
		inner, err = NewGeminiService(ctx, cfg.Gemini, log)
	case "openrouter":
		inner, err = NewOpenRouterService(cfg.OpenRouter, log)
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, openrouter", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewResilientGenerator(inner, cfg.Provider, ResilienceOptions{
		Timeout:      cfg.RequestTimeout,
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryInitialDelay,
		RatePerSec:   cfg.RateLimit,
	}, log), nil
}

type ResilienceOptions struct {
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
	// RatePerSec <= 0 disables rate limiting.
	RatePerSec float64
}

// ResilientGenerator bounds every call to the wrapped generator with a timeout,
// retries failures with exponential backoff and throttles the request rate.
// Errors it returns carry the apperr.ErrService marker.
type ResilientGenerator struct {
	inner   TextGenerator
	name    string
	opts    ResilienceOptions
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewResilientGenerator(inner TextGenerator, name string, opts ResilienceOptions, log *zap.Logger) *ResilientGenerator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	return &ResilientGenerator{
		inner:   inner,
		name:    name,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.WithCommonFields(log, name, ""),
	}
}

// Complete implements TextGenerator.
func (r *ResilientGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	var (
		text    string
		attempt int
	)

	operation := func() error {
		attempt++

		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx := ctx
		if r.opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
		}

		out, err := r.inner.Complete(callCtx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			r.log.Warn("⚠️ Generation attempt failed",
				zap.Int(logger.FieldAttempt, attempt),
				zap.Error(err))
			return err
		}

		text = out
		return nil
	}

	if err := backoff.Retry(operation, r.policy(ctx)); err != nil {
		return "", apperr.Service(fmt.Errorf("failed after %d attempts: %w", attempt, err), r.name)
	}

	return text, nil
}

func (r *ResilientGenerator) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.opts.InitialDelay
	exp.MaxElapsedTime = 0

	return backoff.WithContext(
		backoff.WithMaxRetries(exp, uint64(r.opts.MaxAttempts-1)),
		ctx,
	)
}
