package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/study-helper/internal/config"
	"github.com/heartmarshall/study-helper/internal/domain"
)

// backend is the key-value store the gateway persists to. Update runs fn
// atomically for one key; a nil result deletes the key.
type backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Usage(ctx context.Context) (int64, int, error)
	Ping(ctx context.Context) error
}

// Service implements the persistence gateway: per-domain record
// collections with FIFO caps, age sweeps, usage reporting and settings.
type Service struct {
	store      backend
	limits     config.LimitsConfig
	quotaBytes int64
	defaults   domain.Settings
	clock      clockwork.Clock
	log        *slog.Logger
}

// NewService creates a new gateway service. A nil clock uses the real one.
func NewService(
	log *slog.Logger,
	store backend,
	limits config.LimitsConfig,
	quotaBytes int64,
	defaults domain.Settings,
	clock clockwork.Clock,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if quotaBytes <= 0 {
		quotaBytes = domain.DefaultQuotaBytes
	}
	return &Service{
		store:      store,
		limits:     limits,
		quotaBytes: quotaBytes,
		defaults:   defaults,
		clock:      clock,
		log:        log.With("service", "gateway"),
	}
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// storageError logs a failed store operation and converts it to
// domain.ErrStorage, keeping the cause in the chain.
func (s *Service) storageError(ctx context.Context, op, key string, err error) error {
	s.log.ErrorContext(ctx, "storage operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s %s: %w: %w", op, key, domain.ErrStorage, err)
}

func validateScope(host string, t domain.RecordType) error {
	var errs []domain.FieldError
	if host == "" {
		errs = append(errs, domain.FieldError{Field: "domain", Message: "required"})
	}
	if !t.IsValid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: "must be highlights or notes"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
