// Package webhook serves the messaging platform's webhook: subscription
// verification, inbound messages, and the operator token exchange.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/ziadkadry99/dmrelay/internal/deliveries"
	"github.com/ziadkadry99/dmrelay/internal/fault"
	"github.com/ziadkadry99/dmrelay/internal/graph"
)

// maxBodyBytes caps an inbound webhook body.
const maxBodyBytes = 1 << 20

// recordTimeout bounds a delivery log write after the response is sent.
const recordTimeout = 2 * time.Second

// LanguageDetector resolves text to a language code. It never fails.
type LanguageDetector interface {
	Detect(text string) string
}

// ReplyGenerator produces a reply in the given language.
type ReplyGenerator interface {
	Generate(ctx context.Context, text, language string) (string, error)
}

// Platform is the outbound side of the messaging platform.
type Platform interface {
	SendMessage(ctx context.Context, recipientID, text string) error
	ExchangeToken(ctx context.Context, shortToken string) (graph.TokenExchangeResult, error)
}

// DeliveryRecorder stores the outcome of each webhook POST.
type DeliveryRecorder interface {
	Record(ctx context.Context, d deliveries.Delivery) error
}

// Options holds the optional Controller settings.
type Options struct {
	// VerifyToken is the shared secret for subscription verification. An
	// empty token rejects every verification request.
	VerifyToken string
	Recorder    DeliveryRecorder
	Logger      *slog.Logger
}

// Controller handles webhook HTTP requests. It holds no per-request state.
type Controller struct {
	detector    LanguageDetector
	generator   ReplyGenerator
	platform    Platform
	recorder    DeliveryRecorder
	verifyToken string
	logger      *slog.Logger
}

// NewController wires the pipeline stages into a Controller.
func NewController(detector LanguageDetector, generator ReplyGenerator, platform Platform, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		detector:    detector,
		generator:   generator,
		platform:    platform,
		recorder:    opts.Recorder,
		verifyToken: opts.VerifyToken,
		logger:      logger.With("component", "webhook"),
	}
}

// HandleVerify answers the platform's subscription challenge (GET).
func (c *Controller) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if c.verifyToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(c.verifyToken)) != 1 {
		c.logger.Warn("Webhook verification rejected", "mode", q.Get("hub.mode"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "Invalid verification token")
		return
	}

	c.logger.Info("Webhook verified", "mode", q.Get("hub.mode"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, challenge)
}

// HandleMessage runs one inbound message through detect, generate and send
// (POST). Every failure is answered with 400 {"status":"error"}.
func (c *Controller) HandleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d := deliveries.Delivery{ReceivedAt: start, Stage: deliveries.StageParse}
	defer func() {
		d.DurationMS = time.Since(start).Milliseconds()
		c.record(r.Context(), d)
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		c.fail(w, &d, fault.Malformed(fmt.Errorf("reading body: %w", err)))
		return
	}

	evt, err := ParseEvent(body)
	if err != nil {
		c.fail(w, &d, err)
		return
	}
	d.SenderID = evt.SenderID

	if evt.IsEcho {
		c.logger.Debug("Ignoring echo of outbound message", "sender_id", evt.SenderID)
		d.Status = deliveries.StatusSkipped
		writeJSON(w, http.StatusOK, statusBody{Status: "success"})
		return
	}

	if err := c.process(r.Context(), evt, &d); err != nil {
		c.fail(w, &d, err)
		return
	}

	d.Status = deliveries.StatusSuccess
	c.logger.Info("Reply sent",
		"sender_id", evt.SenderID,
		"language", d.Language,
		"duration", time.Since(start))
	writeJSON(w, http.StatusOK, statusBody{Status: "success"})
}

// process runs the pipeline stages in order. A panic in any stage is
// returned as an error carrying no fault kind.
func (c *Controller) process(ctx context.Context, evt InboundEvent, d *deliveries.Delivery) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Recovered from panic in message pipeline",
				"stage", d.Stage,
				"panic", rec,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("panic during %s: %v", d.Stage, rec)
		}
	}()

	d.Stage = deliveries.StageDetect
	language := c.detector.Detect(evt.Text)
	d.Language = language

	d.Stage = deliveries.StageGenerate
	reply, err := c.generator.Generate(ctx, evt.Text, language)
	if err != nil {
		return err
	}

	d.Stage = deliveries.StageSend
	if err := c.platform.SendMessage(ctx, evt.SenderID, reply); err != nil {
		return err
	}

	d.Stage = deliveries.StageDone
	return nil
}

// fail logs err by kind and writes the uniform error response.
func (c *Controller) fail(w http.ResponseWriter, d *deliveries.Delivery, err error) {
	d.Status = deliveries.StatusError
	attrs := []any{"stage", d.Stage, "sender_id", d.SenderID, "error", err}

	kind, ok := fault.KindOf(err)
	if !ok {
		d.Error = "unexpected: " + err.Error()
		c.logger.Error("Unexpected error handling webhook", attrs...)
		writeJSON(w, http.StatusBadRequest, statusBody{Status: "error"})
		return
	}
	d.Error = kind.String() + ": " + err.Error()

	switch kind {
	case fault.KindMalformedPayload:
		c.logger.Warn("Malformed webhook payload", attrs...)
	case fault.KindGeneration:
		c.logger.Error("Reply generation failed", attrs...)
	case fault.KindPlatform:
		if pe, ok := graph.AsPlatformError(err); ok {
			attrs = append(attrs, "status", pe.StatusCode, "body", pe.Body)
		}
		c.logger.Error("Reply delivery failed", attrs...)
	case fault.KindConfigMissing:
		c.logger.Error("Webhook pipeline is missing configuration", attrs...)
	}
	writeJSON(w, http.StatusBadRequest, statusBody{Status: "error"})
}

func (c *Controller) record(ctx context.Context, d deliveries.Delivery) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.recorder.Record(ctx, d); err != nil {
		c.logger.Warn("Failed to record delivery", "stage", d.Stage, "error", err)
	}
}

// HandleConvertToken exchanges a short-lived token for a long-lived one (GET).
func (c *Controller) HandleConvertToken(w http.ResponseWriter, r *http.Request) {
	shortToken := r.URL.Query().Get("short_token")
	if shortToken == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing 'short_token' parameter"})
		return
	}

	result, err := c.platform.ExchangeToken(r.Context(), shortToken)
	if err != nil {
		if fault.Is(err, fault.KindConfigMissing) {
			c.logger.Error("Token exchange is missing configuration", "stage", fault.StageOf(err), "error", err)
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing configuration", Details: err.Error()})
			return
		}

		details := err.Error()
		if pe, ok := graph.AsPlatformError(err); ok {
			details = pe.Body
		}
		c.logger.Error("Token exchange failed", "stage", fault.StageOf(err), "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Token conversion failed", Details: details})
		return
	}

	c.logger.Info("Exchanged access token", "expires_in", result.ExpiresIn)
	writeJSON(w, http.StatusOK, result)
}

type statusBody struct {
	Status string `json:"status"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
