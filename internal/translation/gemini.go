package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider talks to the Gemini API.
type GeminiProvider struct {
	credentials CredentialProvider
	logger      *logrus.Logger
	model       string
	timeout     time.Duration

	mu        sync.Mutex
	client    *genai.Client
	clientKey string
}

// NewGeminiProvider creates a provider. The client is built on first use
// with the key credentials resolve to.
func NewGeminiProvider(credentials CredentialProvider, model string, timeout time.Duration, logger *logrus.Logger) *GeminiProvider {
	return &GeminiProvider{
		credentials: credentials,
		logger:      logger,
		model:       model,
		timeout:     timeout,
	}
}

func (p *GeminiProvider) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	client, err := p.clientFor(ctx)
	if err != nil {
		return TranslateResponse{}, err
	}

	model := client.GenerativeModel(p.model)
	model.SetTemperature(req.Temperature)
	if req.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemInstruction))
	}

	text, usage, err := p.generate(ctx, "translate", model, req.Text)
	if err != nil {
		return TranslateResponse{}, err
	}
	return TranslateResponse{Text: text, Usage: usage}, nil
}

func (p *GeminiProvider) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	client, err := p.clientFor(ctx)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	model := client.GenerativeModel(p.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema(req.Fields)

	text, usage, err := p.generate(ctx, "analyze", model, req.Prompt)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	return AnalyzeResponse{JSON: text, Usage: usage}, nil
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	p.clientKey = ""
	return err
}

func (p *GeminiProvider) generate(ctx context.Context, requestType string, model *genai.GenerativeModel, input string) (string, Usage, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	requestID := uuid.New().String()
	startTime := time.Now()
	p.logger.Debugf("Gemini %s request %s: model=%s input=%q", requestType, requestID, p.model, truncateText(input, 100))

	resp, err := model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		p.logger.Debugf("Gemini request %s failed after %s: %v", requestID, time.Since(startTime), err)
		return "", Usage{}, classifyGeminiError(err)
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage = Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", usage, fmt.Errorf("no candidates returned")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	p.logger.Debugf("Gemini request %s done in %s: tokens=%d", requestID, time.Since(startTime), usage.TotalTokens)
	return b.String(), usage, nil
}

func (p *GeminiProvider) clientFor(ctx context.Context) (*genai.Client, error) {
	key, ok := p.credentials.Resolve()
	if !ok {
		return nil, fmt.Errorf("%w: no Gemini API key configured", ErrCredentialRequired)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.clientKey == key {
		return p.client, nil
	}
	if p.client != nil {
		p.client.Close()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	p.clientKey = key
	return client, nil
}

func responseSchema(fields []SchemaField) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		kind := genai.TypeString
		if f.Number {
			kind = genai.TypeNumber
		}
		schema.Properties[f.Name] = &genai.Schema{Type: kind}
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrCredentialRequired, err)
		}
	}

	// The SDK reports some gRPC failures as plain errors.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(msg, "API key not valid"), strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "UNAUTHENTICATED"):
		return fmt.Errorf("%w: %v", ErrCredentialRequired, err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
