// Package fault defines the closed set of error kinds the relay pipeline can
// produce. Every component wraps its failures in an *Error so the webhook
// controller can translate them with a single switch.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindMalformedPayload means the inbound webhook body could not be parsed
	// into an event.
	KindMalformedPayload Kind = iota + 1
	// KindGeneration means reply generation failed (model error, timeout,
	// empty output).
	KindGeneration
	// KindPlatform means an outbound Graph API call failed or returned a
	// non-success response.
	KindPlatform
	// KindConfigMissing means a required parameter or credential was absent.
	KindConfigMissing
)

// String returns the log-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMalformedPayload:
		return "malformed_payload"
	case KindGeneration:
		return "generation"
	case KindPlatform:
		return "platform"
	case KindConfigMissing:
		return "config_missing"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and pipeline stage.
func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Malformed wraps a payload parsing failure.
func Malformed(err error) *Error {
	return New(KindMalformedPayload, "parse", err)
}

// Generation wraps a reply generation failure.
func Generation(err error) *Error {
	return New(KindGeneration, "generate", err)
}

// Platform wraps an outbound platform call failure for the named stage.
func Platform(stage string, err error) *Error {
	return New(KindPlatform, stage, err)
}

// ConfigMissing reports that the named setting is required but empty.
func ConfigMissing(stage, setting string) *Error {
	return New(KindConfigMissing, stage, fmt.Errorf("%s is not configured", setting))
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// StageOf returns the stage recorded on the first *Error in err's chain, or
// an empty string.
func StageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}
