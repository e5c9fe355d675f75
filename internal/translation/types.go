package translation

import (
	"context"
	"errors"
	"sync"
)

// Failures the gate and resolver branch on. Provider adapters wrap their
// native errors with one of these; anything else is treated as transient.
var (
	ErrQuotaExceeded         = errors.New("quota exceeded")
	ErrCredentialRequired    = errors.New("credentials required")
	ErrSuspiciousTranslation = errors.New("suspicious translation")
	ErrMalformedAnalysis     = errors.New("malformed analysis response")
	// ErrThrottled means the pacing hook refused to admit a call, e.g. because
	// the deadline falls before the next free slot.
	ErrThrottled             = errors.New("request throttled")
)

// MaxRepairLevel is the strictest instruction tier the gate escalates to.
const MaxRepairLevel = 2

// Settings is the user's configuration for one run.
type Settings struct {
	SourceLanguage string   `json:"source_language" yaml:"source_language"`
	TargetLanguage string   `json:"target_language" yaml:"target_language"`
	TargetTags     []string `json:"target_tags" yaml:"target_tags"`
	Temperature    float32  `json:"temperature" yaml:"temperature"`
	Model          string   `json:"model" yaml:"model"`
	UILanguage     string   `json:"ui_language" yaml:"ui_language"`
	FreeTier       bool     `json:"free_tier" yaml:"free_tier"`
}

// Strategy is the whole-book context shared by every unit-level call.
type Strategy struct {
	GenreEN               string  `json:"genre_en"`
	ToneEN                string  `json:"tone_en"`
	AuthorStyleEN         string  `json:"author_style_en"`
	StrategyEN            string  `json:"strategy_en"`
	GenreTranslated       string  `json:"genre_translated"`
	ToneTranslated        string  `json:"tone_translated"`
	AuthorStyleTranslated string  `json:"author_style_translated"`
	StrategyTranslated    string  `json:"strategy_translated"`
	LiteraryFidelityNote  string  `json:"literary_fidelity_note"`
	CreativityLevel       float64 `json:"detected_creativity_level"`
	IsFallback            bool    `json:"is_fallback,omitempty"`
}

// Usage counts tokens reported by the provider.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// UsageMeter accumulates Usage across every call of a process. It is never
// reset mid-run.
type UsageMeter struct {
	mu    sync.Mutex
	total Usage
}

// NewUsageMeter returns a zeroed meter.
func NewUsageMeter() *UsageMeter {
	return &UsageMeter{}
}

func (m *UsageMeter) Add(u Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total.PromptTokens += u.PromptTokens
	m.total.CompletionTokens += u.CompletionTokens
	m.total.TotalTokens += u.TotalTokens
}

func (m *UsageMeter) Snapshot() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// TranslateRequest is one call to a Translator.
type TranslateRequest struct {
	Text              string
	SystemInstruction string
	Temperature       float32
}

type TranslateResponse struct {
	Text  string
	Usage Usage
}

// Translator is the external unit-level translate capability.
type Translator interface {
	Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error)
}

// SchemaField describes one required key of a structured analysis response.
type SchemaField struct {
	Name   string
	Number bool
}

// AnalyzeRequest asks for a JSON object with the given fields.
type AnalyzeRequest struct {
	Prompt string
	Fields []SchemaField
}

type AnalyzeResponse struct {
	JSON  string
	Usage Usage
}

// Analyzer is the external whole-book analysis capability.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error)
}

// Provider is a backend that can do both.
type Provider interface {
	Translator
	Analyzer
}
