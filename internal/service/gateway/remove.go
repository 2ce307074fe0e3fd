package gateway

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Remove deletes every record with id from the (host, t) collection and
// reports how many were removed. A missing collection removes nothing.
func (s *Service) Remove(ctx context.Context, host string, t domain.RecordType, id string) (int, error) {
	if err := validateScope(host, t); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, domain.NewValidationError("id", "required")
	}

	key := domain.StorageKey(t, host)
	var removed int

	err := s.store.Update(ctx, key, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, nil
		}
		list, err := decodeList(current)
		if err != nil {
			return nil, err
		}
		kept := list[:0:0]
		for _, item := range list {
			if headerOf(item).ID == id {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		if removed == 0 {
			return current, nil
		}
		return encodeList(kept)
	})
	if err != nil {
		return 0, s.storageError(ctx, "remove", key, err)
	}

	if removed > 0 {
		s.log.DebugContext(ctx, "record removed",
			slog.String("key", key),
			slog.String("id", id),
		)
	}
	return removed, nil
}
