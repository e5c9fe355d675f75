package translation_test

import (
	"strings"
	"testing"

	"epub-translator/internal/translation"
)

func TestCacheKey(t *testing.T) {
	key := translation.CacheKey("  <p>Hello</p>\n", "Turkish")
	if !strings.HasPrefix(key, "lit-v16-") {
		t.Fatalf("Key %q lacks version tag", key)
	}
	if key != translation.CacheKey("<p>Hello</p>", "turkish") {
		t.Error("Keys should ignore surrounding whitespace and language case")
	}
	if key == translation.CacheKey("<p>Hello</p>", "German") {
		t.Error("Keys should differ per target language")
	}
	if key == translation.CacheKey("<p>Hello!</p>", "Turkish") {
		t.Error("Keys should differ per text")
	}
}

func TestFileCache(t *testing.T) {
	cache, err := translation.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}

	key := translation.CacheKey("<p>Hello</p>", "Turkish")
	if _, ok := cache.Get(key); ok {
		t.Fatal("Empty cache reported a hit")
	}
	if err := cache.Set(key, "<p>Merhaba</p>"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value, ok := cache.Get(key); !ok || value != "<p>Merhaba</p>" {
		t.Fatalf("Get = %q, %v", value, ok)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := cache.Get(key); ok {
		t.Fatal("Entry survived Clear")
	}
}
