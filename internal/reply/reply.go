// Package reply turns an inbound message into a reply in a given language.
package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/dmrelay/internal/fault"
	"github.com/ziadkadry99/dmrelay/internal/llm"
)

// DefaultMaxLength bounds generated output when none is configured.
const DefaultMaxLength = 100

var (
	errNoCandidates = errors.New("generation returned no candidates")
	errEmptyReply   = errors.New("generation returned empty text")
)

// Options configures a Generator.
type Options struct {
	Model           string
	DefaultLanguage string
	MaxLength       int
	Timeout         time.Duration
	Logger          *slog.Logger
}

// Generator produces one reply per call through an llm.Provider.
type Generator struct {
	provider llm.Provider
	opts     Options
	logger   *slog.Logger
}

// NewGenerator creates a Generator backed by provider.
func NewGenerator(provider llm.Provider, opts Options) *Generator {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "reply"),
	}
}

// Generate returns a reply to text forced into language. Every failure is
// a fault.KindGeneration error.
func (g *Generator) Generate(ctx context.Context, text, language string) (string, error) {
	target := Resolve(language, g.opts.DefaultLanguage)
	if target.Fallback {
		g.logger.Debug("No model token for language, using default",
			"language", language, "fallback", target.Code)
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model:         g.opts.Model,
		Prompt:        text,
		Language:      target.Code,
		LanguageToken: target.Token,
		LanguageName:  target.Name,
		MaxTokens:     g.opts.MaxLength,
		NumCandidates: 1,
	})
	if err != nil {
		return "", fault.Generation(fmt.Errorf("%s: %w", g.provider.Name(), err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fault.Generation(errNoCandidates)
	}

	reply := strings.TrimSpace(resp.Candidates[0].Text)
	if reply == "" {
		return "", fault.Generation(errEmptyReply)
	}

	g.logger.Debug("Reply generated",
		"provider", g.provider.Name(),
		"model", resp.Model,
		"language", target.Code,
		"token", target.Token,
		"duration", time.Since(start))
	return reply, nil
}
