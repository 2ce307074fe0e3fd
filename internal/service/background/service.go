// Package background answers the messages that pages send to the
// background context: definitions and record storage.
package background

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/gateway"
	"github.com/heartmarshall/study-helper/internal/transport/message"
	"github.com/heartmarshall/study-helper/pkg/ctxutil"
)

// dictionary looks words up remotely.
type dictionary interface {
	Lookup(ctx context.Context, word string) (domain.Definition, error)
}

// store is the persistence gateway.
type store interface {
	Append(ctx context.Context, host string, t domain.RecordType, record domain.Record) error
	Remove(ctx context.Context, host string, t domain.RecordType, id string) (int, error)
	PageData(ctx context.Context, host string) (gateway.PageData, error)
	Usage(ctx context.Context) (domain.Usage, error)
	Sweep(ctx context.Context, maxAgeDays int) (gateway.SweepResult, error)
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
	ClearDomain(ctx context.Context, host string) error
	ClearAll(ctx context.Context) (int, error)
}

// Service holds one handler per background message kind.
type Service struct {
	dict        dictionary
	store       store
	cleanupDays int
	log         *slog.Logger
}

// NewService creates the background handlers. cleanupDays is the age
// used when cleanupOldData does not name one.
func NewService(log *slog.Logger, dict dictionary, st store, cleanupDays int) *Service {
	if cleanupDays <= 0 {
		cleanupDays = 30
	}
	return &Service{
		dict:        dict,
		store:       st,
		cleanupDays: cleanupDays,
		log:         log.With("service", "background"),
	}
}

// Register adds every background handler to d.
func (s *Service) Register(d *message.Dispatcher) {
	d.Register(message.ActionGetDefinition, message.Typed(s.GetDefinition))
	d.Register(message.ActionSaveData, message.Typed(s.SaveData))
	d.Register(message.ActionRemoveData, message.Typed(s.RemoveData))
	d.Register(message.ActionGetStorageStats, message.Typed(s.GetStorageStats))
	d.Register(message.ActionCleanupOldData, message.Typed(s.CleanupOldData))
	d.Register(message.ActionGetPageData, message.Typed(s.GetPageData))
	d.Register(message.ActionGetSettings, message.Typed(s.GetSettings))
	d.Register(message.ActionSaveSettings, message.Typed(s.SaveSettings))
	d.Register(message.ActionClearAllData, message.Typed(s.ClearAllData))
}

func senderDomain(ctx context.Context) (string, error) {
	host, ok := ctxutil.DomainFromCtx(ctx)
	if !ok {
		return "", domain.NewValidationError("sender.url", "required")
	}
	return host, nil
}
