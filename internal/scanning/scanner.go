package scanning

import (
	"context"
	"errors"
)

var (
	// ErrNoCredential is returned when no credential source yields a key
	ErrNoCredential = errors.New("no vision api key configured")
	// ErrMalformedResponse is returned when a model reply holds no JSON object
	ErrMalformedResponse = errors.New("vision reply is not valid JSON")
)

// Provider names a vision backend
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// ProgressFunc receives progress updates between 0 and 100
type ProgressFunc func(percent int)

// Report calls p when it is set
func (p ProgressFunc) Report(percent int) {
	if p != nil {
		p(percent)
	}
}

// Vision defines the interface for a multimodal model that answers a prompt
// about an image
type Vision interface {
	// Complete sends the image and prompt and returns the model's raw text reply
	Complete(ctx context.Context, image []byte, mimeType string, prompt string) (string, error)
	// Close releases the client's resources
	Close() error
}

// Credential selects a provider and the key used to call it
type Credential struct {
	Provider string
	Key      string
}

// CredentialSource yields a credential when one is available. A source that
// cannot be read reports false rather than an error.
type CredentialSource interface {
	Credential(ctx context.Context) (Credential, bool)
}

// CredentialFunc adapts a function to a CredentialSource
type CredentialFunc func(ctx context.Context) (Credential, bool)

// Credential calls f
func (f CredentialFunc) Credential(ctx context.Context) (Credential, bool) {
	return f(ctx)
}

// StaticKey is a credential fixed at startup, such as a key from the
// environment. An empty key is never offered.
type StaticKey Credential

// Credential returns the key when it is set
func (s StaticKey) Credential(context.Context) (Credential, bool) {
	if s.Key == "" && s.Provider != ProviderOllama {
		return Credential{}, false
	}
	return Credential(s), true
}
