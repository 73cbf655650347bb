// Package langdetect maps free text to an ISO 639-1 language code.
//
// Detection never fails: any backend error, including a panic, yields the
// configured default language.
package langdetect

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// DefaultLanguage is used when no default is configured.
const DefaultLanguage = "en"

var (
	// ErrEmptyText is returned by the whatlanggo backend for blank input.
	ErrEmptyText = errors.New("empty text")
	// ErrTooShort is returned when the input has fewer runes than the minimum.
	ErrTooShort = errors.New("text too short to classify")
	// ErrUnknownLanguage is returned when the backend cannot name a language.
	ErrUnknownLanguage = errors.New("language could not be determined")
)

// Func is a detection backend. It may return an error or panic on input it
// cannot classify.
type Func func(text string) (string, error)

// Detector resolves text to a language code.
type Detector struct {
	backend         Func
	defaultLanguage string
	logger          *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithBackend replaces the whatlanggo backend.
func WithBackend(fn Func) Option {
	return func(d *Detector) {
		if fn != nil {
			d.backend = fn
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector. minRunes is the shortest input the default backend
// will attempt to classify.
func New(defaultLanguage string, minRunes int, opts ...Option) *Detector {
	defaultLanguage = strings.ToLower(strings.TrimSpace(defaultLanguage))
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	d := &Detector{
		backend:         Whatlang(minRunes),
		defaultLanguage: defaultLanguage,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "langdetect")
	return d
}

// Default returns the fallback language code.
func (d *Detector) Default() string {
	return d.defaultLanguage
}

// Detect returns the language of text, or the default language when the
// backend cannot decide.
func (d *Detector) Detect(text string) string {
	code, err := d.run(text)
	if err != nil {
		d.logger.Debug("Language detection fell back to default",
			"default", d.defaultLanguage, "runes", utf8.RuneCountInString(text), "error", err)
		return d.defaultLanguage
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return d.defaultLanguage
	}
	return code
}

func (d *Detector) run(text string) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return d.backend(text)
}

// Whatlang returns a backend built on whatlanggo.
func Whatlang(minRunes int) Func {
	return func(text string) (string, error) {
		text = strings.TrimSpace(text)
		if text == "" {
			return "", ErrEmptyText
		}
		if utf8.RuneCountInString(text) < minRunes {
			return "", ErrTooShort
		}
		info := whatlanggo.Detect(text)
		code := info.Lang.Iso6391()
		if code == "" {
			return "", ErrUnknownLanguage
		}
		return code, nil
	}
}
