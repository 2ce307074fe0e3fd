package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// SweepResult summarizes an age sweep.
type SweepResult struct {
	Removed     int `json:"removed"`
	KeysScanned int `json:"keysScanned"`
	KeysDeleted int `json:"keysDeleted"`
	KeysFailed  int `json:"keysFailed,omitempty"`
}

// Sweep removes every record, across all domains and types, whose
// timestamp is not newer than now minus maxAgeDays. Collections left
// empty are deleted. The settings record is never touched. A collection
// that fails to update is logged and skipped. Only a failure to list keys
// or a cancelled ctx aborts the sweep.
func (s *Service) Sweep(ctx context.Context, maxAgeDays int) (SweepResult, error) {
	if maxAgeDays <= 0 {
		return SweepResult{}, domain.NewValidationError("daysOld", "must be > 0")
	}

	cutoff := domain.Millis(s.clock.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour))

	keys, err := s.store.Keys(ctx)
	if err != nil {
		return SweepResult{}, s.storageError(ctx, "sweep", "*", err)
	}

	var res SweepResult
	for _, key := range keys {
		if _, _, ok := domain.ParseStorageKey(key); !ok {
			continue
		}
		res.KeysScanned++

		var removed int
		var emptied bool
		err := s.store.Update(ctx, key, func(current []byte) ([]byte, error) {
			removed, emptied = 0, false
			if current == nil {
				return nil, nil
			}
			list, err := decodeList(current)
			if err != nil {
				return nil, err
			}
			kept := make([]json.RawMessage, 0, len(list))
			for _, item := range list {
				if headerOf(item).Timestamp > cutoff {
					kept = append(kept, item)
				}
			}
			removed = len(list) - len(kept)
			if removed == 0 {
				return current, nil
			}
			emptied = len(kept) == 0
			return encodeList(kept)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, s.storageError(ctx, "sweep", key, ctxErr)
			}
			s.log.WarnContext(ctx, "sweep skipped collection",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			res.KeysFailed++
			continue
		}
		res.Removed += removed
		if emptied {
			res.KeysDeleted++
		}
	}

	s.log.InfoContext(ctx, "sweep finished",
		slog.Int("max_age_days", maxAgeDays),
		slog.Int("removed", res.Removed),
		slog.Int("keys_scanned", res.KeysScanned),
		slog.Int("keys_deleted", res.KeysDeleted),
		slog.Int("keys_failed", res.KeysFailed),
	)
	return res, nil
}
