package genai

import (
	"os"
	"testing"
	"time"

	"github.com/openai/openai-go"
)

func TestNewClientMissingKey(t *testing.T) {
	orig := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", orig)

	if _, err := NewClient(); err == nil {
		t.Errorf("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewClientWithKeyEmpty(t *testing.T) {
	if _, err := NewClientWithKey(""); err == nil {
		t.Errorf("expected error for empty API key")
	}
}

func TestClientOptions(t *testing.T) {
	c, err := NewClientWithKey("test-key", WithModel(openai.ChatModelGPT4o), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != openai.ChatModelGPT4o {
		t.Errorf("expected model override, got %s", c.model)
	}
	if c.timeout != 5*time.Second {
		t.Errorf("expected timeout override, got %s", c.timeout)
	}
}

func TestDefaultTimeoutBounded(t *testing.T) {
	c, err := NewClientWithKey("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.timeout <= 0 {
		t.Errorf("timeout must be bounded, got %s", c.timeout)
	}
}
