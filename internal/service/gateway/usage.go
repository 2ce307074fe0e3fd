package gateway

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Usage reports storage consumption against the advisory quota. Crossing
// the quota is logged; it never blocks writes here.
func (s *Service) Usage(ctx context.Context) (domain.Usage, error) {
	bytes, keys, err := s.store.Usage(ctx)
	if err != nil {
		return domain.Usage{}, s.storageError(ctx, "usage", "*", err)
	}

	u := domain.Usage{BytesInUse: bytes, QuotaBytes: s.quotaBytes, Keys: keys}
	if u.OverQuota() {
		s.log.WarnContext(ctx, "storage quota reached",
			slog.Int64("bytes_in_use", u.BytesInUse),
			slog.Int64("quota_bytes", u.QuotaBytes),
		)
	}
	return u, nil
}
