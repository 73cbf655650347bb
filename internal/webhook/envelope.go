package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ziadkadry99/dmrelay/internal/fault"
)

// InboundEvent is the first messaging event of a webhook delivery.
type InboundEvent struct {
	SenderID string
	Text     string
	// IsEcho marks a copy of a message the account itself sent.
	IsEcho bool
}

// envelopeSchemaJSON describes the subset of the messaging webhook envelope
// the relay depends on. Only entry[0].messaging[0] is constrained.
const envelopeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Messaging webhook envelope",
  "type": "object",
  "required": ["entry"],
  "properties": {
    "object": {"type": "string"},
    "entry": {
      "type": "array",
      "minItems": 1,
      "items": [
        {
          "type": "object",
          "required": ["messaging"],
          "properties": {
            "messaging": {
              "type": "array",
              "minItems": 1,
              "items": [
                {
                  "type": "object",
                  "required": ["sender", "message"],
                  "properties": {
                    "sender": {
                      "type": "object",
                      "required": ["id"],
                      "properties": {
                        "id": {"type": "string", "minLength": 1}
                      }
                    },
                    "message": {
                      "type": "object",
                      "properties": {
                        "text": {"type": "string", "minLength": 1},
                        "is_echo": {"type": "boolean"}
                      },
                      "anyOf": [
                        {"required": ["text"]},
                        {"required": ["is_echo"], "properties": {"is_echo": {"const": true}}}
                      ]
                    }
                  }
                }
              ]
            }
          }
        }
      ]
    }
  }
}`

var envelopeSchema = mustCompileSchema(envelopeSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader([]byte(src)))
	if err != nil {
		panic(fmt.Sprintf("compiling envelope schema: %v", err))
	}
	return schema
}

var errNotJSON = errors.New("body is not valid JSON")

type envelope struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID        string           `json:"id"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		MID    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
}

// ParseEvent validates body against the envelope schema and extracts the
// first messaging event. Every failure is a fault.KindMalformedPayload error.
func ParseEvent(body []byte) (InboundEvent, error) {
	if !json.Valid(body) {
		return InboundEvent{}, fault.Malformed(errNotJSON)
	}

	result, err := envelopeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return InboundEvent{}, fault.Malformed(fmt.Errorf("validating envelope: %w", err))
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return InboundEvent{}, fault.Malformed(fmt.Errorf("invalid envelope: %s", strings.Join(problems, "; ")))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return InboundEvent{}, fault.Malformed(fmt.Errorf("decoding envelope: %w", err))
	}
	if len(env.Entry) == 0 || len(env.Entry[0].Messaging) == 0 {
		return InboundEvent{}, fault.Malformed(errors.New("envelope has no messaging event"))
	}

	msg := env.Entry[0].Messaging[0]
	return InboundEvent{
		SenderID: msg.Sender.ID,
		Text:     msg.Message.Text,
		IsEcho:   msg.Message.IsEcho,
	}, nil
}
