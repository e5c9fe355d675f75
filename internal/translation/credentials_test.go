package translation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"epub-translator/internal/translation"
)

func TestChainCredentialsOrder(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "")
	t.Setenv("TEST_SECONDARY_KEY", "env-key")

	testCases := []struct {
		name     string
		chain    translation.ChainCredentials
		expected string
		ok       bool
	}{
		{
			name:     "Flag wins",
			chain:    translation.ChainCredentials{translation.StaticCredentials("flag-key"), translation.EnvCredentials{"TEST_SECONDARY_KEY"}},
			expected: "flag-key",
			ok:       true,
		},
		{
			name:     "Environment before config",
			chain:    translation.ChainCredentials{translation.StaticCredentials(""), translation.EnvCredentials{"TEST_PRIMARY_KEY", "TEST_SECONDARY_KEY"}, translation.StaticCredentials("config-key")},
			expected: "env-key",
			ok:       true,
		},
		{
			name:  "Nothing configured",
			chain: translation.ChainCredentials{translation.StaticCredentials("  "), translation.EnvCredentials{"TEST_PRIMARY_KEY"}, nil},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := tc.chain.Resolve()
			if key != tc.expected || ok != tc.ok {
				t.Fatalf("Resolve = %q, %v; expected %q, %v", key, ok, tc.expected, tc.ok)
			}
		})
	}
}

func TestProvidersRequireCredentials(t *testing.T) {
	none := translation.ChainCredentials{}

	for _, name := range []string{translation.ProviderGemini, translation.ProviderOpenAI} {
		t.Run(name, func(t *testing.T) {
			provider, err := translation.NewProvider(translation.ProviderOptions{Name: name, Model: "m", Timeout: time.Second}, none, newLogger())
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			_, err = provider.Translate(context.Background(), translation.TranslateRequest{Text: "Hi"})
			if !errors.Is(err, translation.ErrCredentialRequired) {
				t.Fatalf("Expected ErrCredentialRequired, got %v", err)
			}
		})
	}

	if _, err := translation.NewProvider(translation.ProviderOptions{Name: "carrier-pigeon"}, none, newLogger()); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}
