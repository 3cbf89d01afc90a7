package scanning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/fuel-tracker/internal/extract"
)

// Factory builds a Vision client for a key
type Factory func(key string) (Vision, error)

// Adapter resolves a credential, calls the matching vision provider and
// decodes its reply. It is an alternative to the OCR and regex path and is
// only used when a caller asks for it.
type Adapter struct {
	sources   []CredentialSource
	factories map[string]Factory
	limits    extract.Limits
}

// NewAdapter creates an Adapter. Sources are consulted in order and the
// first one that yields a credential wins.
func NewAdapter(sources []CredentialSource, factories map[string]Factory) *Adapter {
	return &Adapter{
		sources:   sources,
		factories: factories,
		limits:    extract.DefaultLimits,
	}
}

// WithLimits returns a copy of the adapter that filters values with limits
func (a *Adapter) WithLimits(limits extract.Limits) *Adapter {
	c := *a
	c.limits = limits
	return &c
}

// resolve returns the first available credential
func (a *Adapter) resolve(ctx context.Context) (Credential, error) {
	for _, source := range a.sources {
		if cred, ok := source.Credential(ctx); ok {
			return cred, nil
		}
	}
	return Credential{}, ErrNoCredential
}

// Provider reports which provider would serve the next request
func (a *Adapter) Provider(ctx context.Context) (string, error) {
	cred, err := a.resolve(ctx)
	if err != nil {
		return "", err
	}
	return cred.Provider, nil
}

// Analyze sends the image and prompt to the first configured provider and
// returns the raw reply
func (a *Adapter) Analyze(ctx context.Context, image []byte, contentType string, prompt string, progress ProgressFunc) (string, error) {
	progress.Report(0)

	cred, err := a.resolve(ctx)
	if err != nil {
		return "", err
	}

	factory, ok := a.factories[cred.Provider]
	if !ok {
		return "", fmt.Errorf("unknown vision provider %q", cred.Provider)
	}

	pngData, converted, err := prepareImageData(image, contentType)
	if err != nil {
		return "", fmt.Errorf("preparing image: %w", err)
	}
	if converted {
		slog.Debug("Converted image to PNG", "content_type", contentType, "size", len(pngData))
	}
	progress.Report(20)

	client, err := factory(cred.Key)
	if err != nil {
		return "", fmt.Errorf("creating %s client: %w", cred.Provider, err)
	}
	defer client.Close()
	progress.Report(40)

	reply, err := client.Complete(ctx, pngData, "image/png", prompt)
	if err != nil {
		return "", fmt.Errorf("analyzing image with %s: %w", cred.Provider, err)
	}
	progress.Report(100)

	slog.Debug("Vision reply received", "provider", cred.Provider, "length", len(reply))
	return reply, nil
}

// AnalyzeReceipt reads a fuel receipt photo with the vision model
func (a *Adapter) AnalyzeReceipt(ctx context.Context, image []byte, contentType string, progress ProgressFunc) (extract.ReceiptData, error) {
	reply, err := a.Analyze(ctx, image, contentType, receiptPrompt, progress)
	if err != nil {
		return extract.ReceiptData{}, err
	}
	return parseReceiptReply(reply, a.limits)
}

// AnalyzeDashboard reads an instrument cluster photo with the vision model
func (a *Adapter) AnalyzeDashboard(ctx context.Context, image []byte, contentType string, mode DashboardMode, progress ProgressFunc) (extract.DashboardData, error) {
	prompt, ok := dashboardPrompts[mode]
	if !ok {
		return extract.DashboardData{}, fmt.Errorf("unknown dashboard mode %q", mode)
	}

	reply, err := a.Analyze(ctx, image, contentType, prompt, progress)
	if err != nil {
		return extract.DashboardData{}, err
	}
	return parseDashboardReply(reply, a.limits)
}
