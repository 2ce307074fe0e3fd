package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Settings returns the stored settings. Missing fields, or a missing
// record, fall back to the configured defaults.
func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	settings := s.defaults

	raw, err := s.store.Get(ctx, domain.SettingsKey)
	if errors.Is(err, domain.ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return s.defaults, s.storageError(ctx, "get", domain.SettingsKey, err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return s.defaults, s.storageError(ctx, "get", domain.SettingsKey, fmt.Errorf("decode settings: %w", err))
	}
	return settings, nil
}

// SaveSettings validates and stores settings.
func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	err = s.store.Update(ctx, domain.SettingsKey, func([]byte) ([]byte, error) {
		return b, nil
	})
	if err != nil {
		return s.storageError(ctx, "save", domain.SettingsKey, err)
	}

	s.log.InfoContext(ctx, "settings saved")
	return nil
}

// InitSettings writes the defaults unless settings are already stored.
// It reports whether the defaults were written.
func (s *Service) InitSettings(ctx context.Context) (bool, error) {
	b, err := json.Marshal(s.defaults)
	if err != nil {
		return false, fmt.Errorf("encode settings: %w", err)
	}

	var created bool
	err = s.store.Update(ctx, domain.SettingsKey, func(current []byte) ([]byte, error) {
		if current != nil {
			created = false
			return current, nil
		}
		created = true
		return b, nil
	})
	if err != nil {
		return false, s.storageError(ctx, "init", domain.SettingsKey, err)
	}

	if created {
		s.log.InfoContext(ctx, "default settings written")
	}
	return created, nil
}
