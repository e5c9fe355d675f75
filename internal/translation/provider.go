package translation

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderOptions selects and configures a backend.
type ProviderOptions struct {
	Name      string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// NewProvider builds the named backend.
func NewProvider(opts ProviderOptions, credentials CredentialProvider, logger *logrus.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Name)) {
	case "", ProviderGemini:
		return NewGeminiProvider(credentials, opts.Model, opts.Timeout, logger), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(credentials, opts.Model, opts.BaseURL, opts.MaxTokens, opts.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}
}
