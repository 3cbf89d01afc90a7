// Package ocr recognises text in receipt and dashboard photos with Tesseract.
package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/fuel-tracker/internal/scanning"
)

// Tesseract implements text recognition with a local Tesseract install
type Tesseract struct {
	languages []string
}

// NewTesseract creates a recogniser for the given languages, Turkish and
// English by default
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"tur", "eng"}
	}
	return &Tesseract{languages: languages}
}

type result struct {
	text string
	err  error
}

// Recognize returns the raw text in the image. Tesseract cannot be
// interrupted, so a cancelled context returns immediately and the
// recognition finishes in the background.
func (t *Tesseract) Recognize(ctx context.Context, data []byte, contentType string, progress scanning.ProgressFunc) (string, error) {
	progress.Report(0)

	img, err := scanning.DecodeImage(data, contentType)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	prepared, err := preprocess(img)
	if err != nil {
		return "", err
	}
	progress.Report(30)

	done := make(chan result, 1)
	go func() {
		text, err := t.recognize(prepared)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		progress.Report(100)
		return r.text, nil
	}
}

func (t *Tesseract) recognize(png []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}
