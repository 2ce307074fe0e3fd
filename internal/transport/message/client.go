package message

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Client sends typed messages on behalf of one page.
type Client struct {
	m      Messenger
	sender Sender
}

// NewClient creates a client whose messages carry pageURL as sender.
func NewClient(m Messenger, pageURL string) *Client {
	return &Client{m: m, sender: Sender{URL: pageURL}}
}

// Sender returns the sender stamped on every message.
func (c *Client) Sender() Sender { return c.sender }

func (c *Client) call(ctx context.Context, action Action, payload, out any) error {
	env, err := New(action, c.sender, payload)
	if err != nil {
		return err
	}
	raw, err := c.m.Send(ctx, env)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}

// FetchDefinition asks the background for a definition. Lookup failures
// come back as *domain.LookupError.
func (c *Client) FetchDefinition(ctx context.Context, word string) (domain.Definition, error) {
	var resp GetDefinitionResponse
	if err := c.call(ctx, ActionGetDefinition, GetDefinitionRequest{Word: word}, &resp); err != nil {
		return domain.Definition{}, err
	}
	return resp.Definition.Result()
}

func (c *Client) save(ctx context.Context, t domain.RecordType, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", t, err)
	}
	return c.call(ctx, ActionSaveData, SaveDataRequest{Type: t, Data: data}, nil)
}

func (c *Client) remove(ctx context.Context, t domain.RecordType, id string) error {
	return c.call(ctx, ActionRemoveData, RemoveDataRequest{Type: t, ID: id}, nil)
}

// SaveHighlight persists a highlight for the sender's domain.
func (c *Client) SaveHighlight(ctx context.Context, rec domain.HighlightRecord) error {
	return c.save(ctx, domain.RecordTypeHighlights, rec)
}

// RemoveHighlight deletes a highlight of the sender's domain.
func (c *Client) RemoveHighlight(ctx context.Context, id string) error {
	return c.remove(ctx, domain.RecordTypeHighlights, id)
}

// SaveNote persists a note for the sender's domain.
func (c *Client) SaveNote(ctx context.Context, n domain.NoteRecord) error {
	return c.save(ctx, domain.RecordTypeNotes, n)
}

// RemoveNote deletes a note of the sender's domain.
func (c *Client) RemoveNote(ctx context.Context, id string) error {
	return c.remove(ctx, domain.RecordTypeNotes, id)
}

// PageData loads the highlights and notes of the sender's domain.
func (c *Client) PageData(ctx context.Context) (PageDataResponse, error) {
	var resp PageDataResponse
	err := c.call(ctx, ActionGetPageData, nil, &resp)
	return resp, err
}

// Settings loads the stored settings.
func (c *Client) Settings(ctx context.Context) (domain.Settings, error) {
	var resp SettingsResponse
	if err := c.call(ctx, ActionGetSettings, nil, &resp); err != nil {
		return domain.Settings{}, err
	}
	return resp.Settings, nil
}

// SaveSettings stores settings.
func (c *Client) SaveSettings(ctx context.Context, s domain.Settings) error {
	return c.call(ctx, ActionSaveSettings, SaveSettingsRequest{Settings: s}, nil)
}

// StorageStats reports storage usage.
func (c *Client) StorageStats(ctx context.Context) (StorageStats, error) {
	var resp StorageStats
	err := c.call(ctx, ActionGetStorageStats, nil, &resp)
	return resp, err
}

// Cleanup removes records older than daysOld days; zero uses the
// server default.
func (c *Client) Cleanup(ctx context.Context, daysOld int) (CleanupResponse, error) {
	var resp CleanupResponse
	err := c.call(ctx, ActionCleanupOldData, CleanupRequest{DaysOld: daysOld}, &resp)
	return resp, err
}

// ClearAll deletes the sender domain's records, or every record with all.
func (c *Client) ClearAll(ctx context.Context, all bool) (ClearAllResponse, error) {
	var resp ClearAllResponse
	err := c.call(ctx, ActionClearAllData, ClearAllRequest{All: all}, &resp)
	return resp, err
}
