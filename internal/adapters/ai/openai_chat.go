package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tradingagents/pkg/errors"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAICompatClient speaks the OpenAI chat-completions JSON protocol.
// It backs both the OpenAI provider (default base URL) and the Grok provider
// (x.ai base URL); the wire format is identical.
type OpenAICompatClient struct {
	provider ProviderName
	apiKey   string
	baseURL  string
	client   *http.Client
}

// Ensure OpenAICompatClient implements ChatClient
var _ ChatClient = (*OpenAICompatClient)(nil)

// NewOpenAICompatClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAICompatClient(provider ProviderName, apiKey, baseURL string, timeout time.Duration) *OpenAICompatClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAICompatClient{
		provider: provider,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string        `json:"role"`
			Content openAIContent `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// openAIContent collapses the two content encodings the protocol allows: a
// plain string or an array of typed parts. Array fragments are joined;
// non-text parts are serialized so nothing is silently dropped.
type openAIContent string

func (c *openAIContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = openAIContent(s)
		return nil
	}

	var parts []map[string]json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("unsupported content shape: %s", string(data))
	}

	var b strings.Builder
	for _, part := range parts {
		if raw, ok := part["text"]; ok {
			var text string
			if err := json.Unmarshal(raw, &text); err == nil {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(text)
				continue
			}
		}
		serialized, err := json.Marshal(part)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(serialized)
	}
	*c = openAIContent(b.String())
	return nil
}

// Complete sends a chat completion request and returns the response text.
func (p *OpenAICompatClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p.apiKey == "" {
		return nil, errors.Wrapf(errors.ErrConfig, "%s API key not configured", p.provider)
	}

	wireReq := openAIRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, msg := range req.Messages {
		wireReq.Messages = append(wireReq.Messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCancelled, "chat request aborted")
		}
		// Connection failures and client timeouts are retryable.
		return nil, errors.Wrapf(errors.ErrTransient, "%s request failed: %v", p.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransient, "read %s response: %v", p.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPStatus(p.provider, resp.StatusCode, respBody)
	}

	var wireResp openAIResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, errors.Wrapf(errors.ErrPermanent, "unmarshal %s response: %v", p.provider, err)
	}
	if len(wireResp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrPermanent, "%s returned no choices", p.provider)
	}

	return &Completion{
		Text: string(wireResp.Choices[0].Message.Content),
		Usage: Usage{
			PromptTokens:     wireResp.Usage.PromptTokens,
			CompletionTokens: wireResp.Usage.CompletionTokens,
			TotalTokens:      wireResp.Usage.TotalTokens,
		},
	}, nil
}

// classifyHTTPStatus maps provider status codes onto the error taxonomy:
// 5xx and 429 are transient, everything else in the error range is permanent.
func classifyHTTPStatus(provider ProviderName, status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	detail := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		detail = fmt.Sprintf("%s - %s", errResp.Error.Type, errResp.Error.Message)
	}

	if status >= 500 || status == http.StatusTooManyRequests {
		return errors.Wrapf(errors.ErrTransient, "%s API error (%d): %s", provider, status, detail)
	}
	return errors.Wrapf(errors.ErrPermanent, "%s API error (%d): %s", provider, status, detail)
}
