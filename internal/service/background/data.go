package background

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// SaveData appends a highlight or note to the sender's collection.
func (s *Service) SaveData(ctx context.Context, req message.SaveDataRequest) (any, error) {
	host, err := senderDomain(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		return nil, domain.NewValidationError("data", "required")
	}

	var rec domain.Record
	switch req.Type {
	case domain.RecordTypeHighlights:
		var h domain.HighlightRecord
		if err := json.Unmarshal(req.Data, &h); err != nil {
			return nil, fmt.Errorf("decode highlight: %w: %w", domain.ErrUnsupported, err)
		}
		rec = h
	case domain.RecordTypeNotes:
		var n domain.NoteRecord
		if err := json.Unmarshal(req.Data, &n); err != nil {
			return nil, fmt.Errorf("decode note: %w: %w", domain.ErrUnsupported, err)
		}
		rec = n
	default:
		return nil, domain.NewValidationError("type", "must be highlights or notes")
	}

	if err := s.store.Append(ctx, host, req.Type, rec); err != nil {
		return nil, err
	}
	return message.Ack{}, nil
}

// RemoveData deletes a record from the sender's collection.
func (s *Service) RemoveData(ctx context.Context, req message.RemoveDataRequest) (any, error) {
	host, err := senderDomain(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Remove(ctx, host, req.Type, req.ID); err != nil {
		return nil, err
	}
	return message.Ack{}, nil
}

// GetPageData returns the sender's highlights and notes.
func (s *Service) GetPageData(ctx context.Context, _ struct{}) (any, error) {
	host, err := senderDomain(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.store.PageData(ctx, host)
	if err != nil {
		return nil, err
	}
	return message.PageDataResponse{Highlights: data.Highlights, Notes: data.Notes}, nil
}

// ClearAllData deletes the sender's records, or every record with All.
func (s *Service) ClearAllData(ctx context.Context, req message.ClearAllRequest) (any, error) {
	if req.All {
		n, err := s.store.ClearAll(ctx)
		if err != nil {
			return nil, err
		}
		return message.ClearAllResponse{Success: true, Keys: n}, nil
	}

	host, err := senderDomain(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.ClearDomain(ctx, host); err != nil {
		return nil, err
	}
	return message.ClearAllResponse{Success: true}, nil
}
