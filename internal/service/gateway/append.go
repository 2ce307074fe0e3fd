package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
)

type validator interface {
	Validate() error
}

// Append adds record to the (host, t) collection and trims the
// collection to its cap, dropping the oldest entries in one pass.
func (s *Service) Append(ctx context.Context, host string, t domain.RecordType, record domain.Record) error {
	if err := validateScope(host, t); err != nil {
		return err
	}
	if record == nil {
		return domain.NewValidationError("data", "required")
	}
	if v, ok := record.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	item, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	key := domain.StorageKey(t, host)
	limit := s.limits.MaxItems(t)
	var dropped int

	err = s.store.Update(ctx, key, func(current []byte) ([]byte, error) {
		list, err := decodeList(current)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		list, dropped = trimOldest(list, limit)
		return encodeList(list)
	})
	if err != nil {
		return s.storageError(ctx, "append", key, err)
	}

	s.log.DebugContext(ctx, "record appended",
		slog.String("key", key),
		slog.String("id", record.RecordID()),
	)
	if dropped > 0 {
		s.log.InfoContext(ctx, "collection trimmed",
			slog.String("key", key),
			slog.Int("dropped", dropped),
			slog.Int("limit", limit),
		)
	}
	return nil
}
