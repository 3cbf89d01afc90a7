package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// minHeight is the height below which photos are upscaled before OCR
	minHeight    = 800
	targetHeight = 1200
)

// preprocess converts to grayscale, upscales small photos and raises the
// contrast, then encodes as PNG for Tesseract
func preprocess(img image.Image) ([]byte, error) {
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, targetHeight, imaging.Lanczos)
	}
	gray = imaging.AdjustContrast(gray, 20)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}
