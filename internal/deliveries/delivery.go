// Package deliveries keeps an outcome log of webhook deliveries. Message and
// reply text are never stored, and the pipeline never reads the log back.
package deliveries

import "time"

// Status is the outcome of one webhook delivery.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Stage names the last pipeline step a delivery reached.
const (
	StageParse    = "parse"
	StageDetect   = "detect"
	StageGenerate = "generate"
	StageSend     = "send"
	StageDone     = "done"
)

// Delivery is a single webhook POST outcome.
type Delivery struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	SenderID   string    `json:"sender_id,omitempty"`
	Language   string    `json:"language,omitempty"`
	Stage      string    `json:"stage"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}
