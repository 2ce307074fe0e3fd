package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// PageData is everything stored for one domain.
type PageData struct {
	Highlights []domain.HighlightRecord `json:"highlights"`
	Notes      []domain.NoteRecord      `json:"notes"`
}

// List returns the raw records of the (host, t) collection, oldest first.
// A missing collection is empty, not an error.
func (s *Service) List(ctx context.Context, host string, t domain.RecordType) ([]json.RawMessage, error) {
	if err := validateScope(host, t); err != nil {
		return nil, err
	}

	key := domain.StorageKey(t, host)
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, s.storageError(ctx, "list", key, err)
	}

	list, err := decodeList(raw)
	if err != nil {
		return nil, s.storageError(ctx, "list", key, err)
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	return list, nil
}

// Highlights returns the highlights stored for host.
func (s *Service) Highlights(ctx context.Context, host string) ([]domain.HighlightRecord, error) {
	return listAs[domain.HighlightRecord](ctx, s, host, domain.RecordTypeHighlights)
}

// Notes returns the notes stored for host.
func (s *Service) Notes(ctx context.Context, host string) ([]domain.NoteRecord, error) {
	return listAs[domain.NoteRecord](ctx, s, host, domain.RecordTypeNotes)
}

// PageData returns the highlights and notes stored for host.
func (s *Service) PageData(ctx context.Context, host string) (PageData, error) {
	highlights, err := s.Highlights(ctx, host)
	if err != nil {
		return PageData{}, err
	}
	notes, err := s.Notes(ctx, host)
	if err != nil {
		return PageData{}, err
	}
	return PageData{Highlights: highlights, Notes: notes}, nil
}

func listAs[T any](ctx context.Context, s *Service, host string, t domain.RecordType) ([]T, error) {
	list, err := s.List(ctx, host, t)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list))
	for _, item := range list {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, s.storageError(ctx, "list", domain.StorageKey(t, host), fmt.Errorf("decode record: %w", err))
		}
		out = append(out, v)
	}
	return out, nil
}
