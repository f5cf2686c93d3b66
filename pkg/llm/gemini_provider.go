package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type GeminiChatParts struct {
	Text string `json:"text"`
}

type GeminiChatContent struct {
	Parts []*GeminiChatParts `json:"parts"`
	Role  string             `json:"role"`
}

type GeminiChatRequest struct {
	Contents          []*GeminiChatContent `json:"contents"`
	SystemInstruction *GeminiChatContent   `json:"systemInstruction,omitempty"`
}

type GeminiChatCandidate struct {
	Content *GeminiChatContent `json:"content"`
}

type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type GeminiChatResponse struct {
	Candidates    []*GeminiChatCandidate `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata   `json:"usageMetadata"`
}

const (
	geminiRoleUser  = "user"
	geminiRoleModel = "model"
)

// GeminiProvider talks to the Google Generative Language REST API.
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

func (p *GeminiProvider) Complete(
	ctx context.Context,
	system string,
	history []Message,
	prompt string,
	options ...Option,
) (*Completion, error) {
	opts := &Options{Model: p.model}
	for _, opt := range options {
		opt(opts)
	}

	payload := GeminiChatRequest{}
	if system != "" {
		payload.SystemInstruction = &GeminiChatContent{
			Parts: []*GeminiChatParts{{Text: system}},
		}
	}
	for _, msg := range history {
		payload.Contents = append(payload.Contents, &GeminiChatContent{
			Parts: []*GeminiChatParts{{Text: msg.Content}},
			Role:  mapRole(msg.Role),
		})
	}
	payload.Contents = append(payload.Contents, &GeminiChatContent{
		Parts: []*GeminiChatParts{{Text: prompt}},
		Role:  geminiRoleUser,
	})

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:generateContent",
		opts.Model,
	)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Provider: "gemini", Detail: string(resBody)}
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes GeminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return nil, err
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	completion := &Completion{
		Text: geminiRes.Candidates[0].Content.Parts[0].Text,
	}
	if geminiRes.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     geminiRes.UsageMetadata.PromptTokenCount,
			CompletionTokens: geminiRes.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      geminiRes.UsageMetadata.TotalTokenCount,
		}
	}

	if opts.OutputSchema != nil {
		raw := ExtractJSON(completion.Text)
		structured, err := ValidateAgainstSchema(opts.OutputSchema, []byte(raw))
		if err != nil {
			return nil, err
		}
		// nil on validation failure: the caller decides the fallback
		completion.Structured = structured
	}

	return completion, nil
}

func mapRole(role string) string {
	if role == RoleAssistant || role == geminiRoleModel {
		return geminiRoleModel
	}
	return geminiRoleUser
}
