package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHuggingFaceBaseURL hosts the serverless inference endpoints.
const DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co/models"

const (
	huggingFaceTimeout     = 2 * time.Minute
	maxHuggingFaceResponse = 1 << 20
)

// HuggingFaceProvider calls a Hugging Face inference endpoint serving a
// multilingual seq2seq model such as mBART-50.
type HuggingFaceProvider struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHuggingFaceProvider creates a provider posting to endpoint. An empty
// token sends anonymous requests.
func NewHuggingFaceProvider(endpoint, token string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: huggingFaceTimeout},
	}
}

func (p *HuggingFaceProvider) Name() string {
	return "huggingface"
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength          int    `json:"max_length,omitempty"`
	NumReturnSequences int    `json:"num_return_sequences,omitempty"`
	ForcedBOSToken     string `json:"forced_bos_token,omitempty"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (p *HuggingFaceProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	hfReq := hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			MaxLength:          req.MaxTokens,
			NumReturnSequences: req.NumCandidates,
			ForcedBOSToken:     req.LanguageToken,
		},
		Options: hfOptions{WaitForModel: true},
	}

	body, err := json.Marshal(hfReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal huggingface request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxHuggingFaceResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read huggingface response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("huggingface returned status %d: %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("huggingface returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(respBody, &generations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal huggingface response: %w", err)
	}

	resp := &CompletionResponse{Model: modelFromEndpoint(p.endpoint)}
	for _, g := range generations {
		resp.Candidates = append(resp.Candidates, Candidate{Text: g.GeneratedText})
	}
	return resp, nil
}

func modelFromEndpoint(endpoint string) string {
	if i := strings.Index(endpoint, "/models/"); i >= 0 {
		return strings.TrimSuffix(endpoint[i+len("/models/"):], "/")
	}
	return endpoint
}
