package fuel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zombor/fuel-tracker/internal/scanning"
)

const visionKeySetting = "gemini_api_key"

// SetVisionKey stores the user's own Gemini key. It takes precedence over
// keys configured at startup.
func (s *Service) SetVisionKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key is required: %w", ErrInvalidInput)
	}
	if err := s.db.PutSetting(visionKeySetting, []byte(key)); err != nil {
		return fmt.Errorf("saving vision key: %w", err)
	}
	return nil
}

// ClearVisionKey removes the stored key
func (s *Service) ClearVisionKey() error {
	if err := s.db.DeleteSetting(visionKeySetting); err != nil {
		return fmt.Errorf("deleting vision key: %w", err)
	}
	return nil
}

// HasVisionKey reports whether a user key is stored
func (s *Service) HasVisionKey() bool {
	_, ok := s.StoredVisionKey().Credential(context.Background())
	return ok
}

// StoredVisionKey is the credential source for the user's stored key. A
// database error is reported as no key so the next source is tried.
func (s *Service) StoredVisionKey() scanning.CredentialSource {
	return scanning.CredentialFunc(func(context.Context) (scanning.Credential, bool) {
		key, err := s.db.GetSetting(visionKeySetting)
		if err != nil {
			slog.Warn("Failed to read stored vision key", "error", err)
			return scanning.Credential{}, false
		}
		if len(key) == 0 {
			return scanning.Credential{}, false
		}
		return scanning.Credential{Provider: scanning.ProviderGemini, Key: string(key)}, true
	})
}
