package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider talks to the OpenAI chat completions API or a compatible server.
type OpenAIProvider struct {
	credentials CredentialProvider
	logger      *logrus.Logger
	model       string
	baseURL     string
	maxTokens   int
	timeout     time.Duration

	mu        sync.Mutex
	client    *openai.Client
	clientKey string
}

// NewOpenAIProvider creates a provider. An empty baseURL uses the OpenAI default.
func NewOpenAIProvider(credentials CredentialProvider, model, baseURL string, maxTokens int, timeout time.Duration, logger *logrus.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		credentials: credentials,
		logger:      logger,
		model:       model,
		baseURL:     baseURL,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	resp, err := p.complete(ctx, "translate", openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
	})
	if err != nil {
		return TranslateResponse{}, err
	}
	return TranslateResponse{Text: resp.Choices[0].Message.Content, Usage: openAIUsage(resp.Usage)}, nil
}

func (p *OpenAIProvider) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	resp, err := p.complete(ctx, "analyze", openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return AnalyzeResponse{}, err
	}
	return AnalyzeResponse{JSON: resp.Choices[0].Message.Content, Usage: openAIUsage(resp.Usage)}, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, requestType string, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	client, err := p.clientFor()
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	requestID := uuid.New().String()
	startTime := time.Now()
	p.logger.Debugf("OpenAI %s request %s: model=%s temperature=%.2f input=%q",
		requestType, requestID, req.Model, req.Temperature, truncateText(lastMessage(req), 100))

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.Debugf("OpenAI request %s failed after %s: %v", requestID, time.Since(startTime), err)
		return openai.ChatCompletionResponse{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionResponse{}, fmt.Errorf("no response choices returned")
	}

	p.logger.Debugf("OpenAI request %s done in %s: tokens=%d finish=%s",
		requestID, time.Since(startTime), resp.Usage.TotalTokens, resp.Choices[0].FinishReason)
	return resp, nil
}

// clientFor rebuilds the client when the resolved key changes.
func (p *OpenAIProvider) clientFor() (*openai.Client, error) {
	key, ok := p.credentials.Resolve()
	if !ok {
		return nil, fmt.Errorf("%w: no OpenAI API key configured", ErrCredentialRequired)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.clientKey != key {
		cfg := openai.DefaultConfig(key)
		if p.baseURL != "" {
			cfg.BaseURL = p.baseURL
		}
		p.client = openai.NewClientWithConfig(cfg)
		p.clientKey = key
	}
	return p.client, nil
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrCredentialRequired, err)
	}
	return fmt.Errorf("openai request failed: %w", err)
}

func openAIUsage(u openai.Usage) Usage {
	return Usage{
		PromptTokens:     int64(u.PromptTokens),
		CompletionTokens: int64(u.CompletionTokens),
		TotalTokens:      int64(u.TotalTokens),
	}
}

func lastMessage(req openai.ChatCompletionRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}

// truncateText safely truncates text to a specified length
func truncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return "..."
	}
	return string(runes[:maxLength-3]) + "..."
}
