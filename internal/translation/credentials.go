package translation

import (
	"os"
	"strings"
)

// CredentialProvider looks up an API key. It reports false when none is set.
type CredentialProvider interface {
	Resolve() (string, bool)
}

// StaticCredentials is a key supplied directly, usually from a flag or config.
type StaticCredentials string

func (s StaticCredentials) Resolve() (string, bool) {
	key := strings.TrimSpace(string(s))
	return key, key != ""
}

// EnvCredentials checks the named environment variables in order.
type EnvCredentials []string

func (e EnvCredentials) Resolve() (string, bool) {
	for _, name := range e {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, true
		}
	}
	return "", false
}

// ChainCredentials returns the first key any provider resolves. Lookup order
// is the slice order, typically flag, environment, then config file.
type ChainCredentials []CredentialProvider

func (c ChainCredentials) Resolve() (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if key, ok := p.Resolve(); ok {
			return key, true
		}
	}
	return "", false
}
