package background

import (
	"context"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// GetStorageStats reports storage use against the quota.
func (s *Service) GetStorageStats(ctx context.Context, _ struct{}) (any, error) {
	u, err := s.store.Usage(ctx)
	if err != nil {
		return nil, err
	}
	return message.NewStorageStats(u), nil
}

// CleanupOldData removes records older than DaysOld days.
func (s *Service) CleanupOldData(ctx context.Context, req message.CleanupRequest) (any, error) {
	days := req.DaysOld
	if days == 0 {
		days = s.cleanupDays
	}
	if days < 0 {
		return nil, domain.NewValidationError("daysOld", "must be > 0")
	}

	res, err := s.store.Sweep(ctx, days)
	if err != nil {
		return nil, err
	}
	return message.CleanupResponse{
		Success:     true,
		Removed:     res.Removed,
		KeysDeleted: res.KeysDeleted,
		KeysFailed:  res.KeysFailed,
	}, nil
}
