package background

import (
	"context"

	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// GetSettings returns the stored settings.
func (s *Service) GetSettings(ctx context.Context, _ struct{}) (any, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return message.SettingsResponse{Settings: settings}, nil
}

// SaveSettings replaces the stored settings.
func (s *Service) SaveSettings(ctx context.Context, req message.SaveSettingsRequest) (any, error) {
	if err := s.store.SaveSettings(ctx, req.Settings); err != nil {
		return nil, err
	}
	return message.SettingsResponse{Settings: req.Settings}, nil
}
