package gateway

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// ClearDomain deletes the highlights and notes of host.
func (s *Service) ClearDomain(ctx context.Context, host string) error {
	if host == "" {
		return domain.NewValidationError("domain", "required")
	}

	types := domain.RecordTypes()
	keys := make([]string, 0, len(types))
	for _, t := range types {
		keys = append(keys, domain.StorageKey(t, host))
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return s.storageError(ctx, "clear", host, err)
	}

	s.log.InfoContext(ctx, "domain cleared", slog.String("domain", host))
	return nil
}

// ClearAll deletes every record collection and reports how many keys
// were removed. Settings survive.
func (s *Service) ClearAll(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return 0, s.storageError(ctx, "clear", "*", err)
	}

	var records []string
	for _, key := range keys {
		if _, _, ok := domain.ParseStorageKey(key); ok {
			records = append(records, key)
		}
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := s.store.Delete(ctx, records...); err != nil {
		return 0, s.storageError(ctx, "clear", "*", err)
	}

	s.log.InfoContext(ctx, "all data cleared", slog.Int("keys", len(records)))
	return len(records), nil
}
