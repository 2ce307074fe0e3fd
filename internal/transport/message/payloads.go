package message

import (
	"encoding/json"
	"strconv"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Ack is the empty answer of fire-and-forget messages.
type Ack struct{}

// GetDefinitionRequest asks the background for a definition.
type GetDefinitionRequest struct {
	Word string `json:"word"`
}

// DefinitionPayload is a definition on the wire. On failure Error holds
// a short label and Definition the user message, as the page renders
// both variants with the same template.
type DefinitionPayload struct {
	Word         string                 `json:"word"`
	Phonetic     string                 `json:"phonetic,omitempty"`
	PartOfSpeech string                 `json:"partOfSpeech,omitempty"`
	Definition   string                 `json:"definition"`
	Example      string                 `json:"example,omitempty"`
	Synonyms     []string               `json:"synonyms,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Kind         domain.LookupErrorKind `json:"kind,omitempty"`
}

// DefinitionOK encodes a successful lookup.
func DefinitionOK(d domain.Definition) DefinitionPayload {
	return DefinitionPayload{
		Word:         d.Word,
		Phonetic:     d.Phonetic,
		PartOfSpeech: d.PartOfSpeech,
		Definition:   d.Definition,
		Example:      d.Example,
		Synonyms:     d.Synonyms,
	}
}

// DefinitionFailed encodes a failed lookup.
func DefinitionFailed(word string, le *domain.LookupError) DefinitionPayload {
	return DefinitionPayload{
		Word:       word,
		Definition: le.Message,
		Error:      le.Kind.Label(),
		Kind:       le.Kind,
	}
}

// Failed reports whether p is the error variant.
func (p DefinitionPayload) Failed() bool {
	return p.Error != ""
}

// Result converts p back into a definition or a *domain.LookupError.
func (p DefinitionPayload) Result() (domain.Definition, error) {
	if p.Failed() {
		kind := p.Kind
		if !kind.IsValid() {
			kind = domain.LookupHTTPError
		}
		le := domain.NewLookupError(p.Word, kind, nil)
		if p.Definition != "" {
			le.Message = p.Definition
		}
		return domain.Definition{}, le
	}

	synonyms := p.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	return domain.Definition{
		Word:         p.Word,
		Phonetic:     p.Phonetic,
		PartOfSpeech: p.PartOfSpeech,
		Definition:   p.Definition,
		Example:      p.Example,
		Synonyms:     synonyms,
	}, nil
}

// GetDefinitionResponse answers getDefinition.
type GetDefinitionResponse struct {
	Definition DefinitionPayload `json:"definition"`
}

// SaveDataRequest appends a record to the sender's collection.
type SaveDataRequest struct {
	Type domain.RecordType `json:"type"`
	Data json.RawMessage   `json:"data"`
}

// RemoveDataRequest deletes a record from the sender's collection.
type RemoveDataRequest struct {
	Type domain.RecordType `json:"type"`
	ID   string            `json:"id"`
}

// StorageStats answers getStorageStats. MBUsed and PercentUsed are
// preformatted with two and one decimals.
type StorageStats struct {
	BytesInUse  int64   `json:"bytesInUse"`
	MBUsed      string  `json:"mbUsed"`
	MaxMB       float64 `json:"maxMB"`
	PercentUsed string  `json:"percentUsed"`
	QuotaBytes  int64   `json:"quotaBytes"`
	Keys        int     `json:"keys"`
}

// NewStorageStats formats u for the wire.
func NewStorageStats(u domain.Usage) StorageStats {
	return StorageStats{
		BytesInUse:  u.BytesInUse,
		MBUsed:      strconv.FormatFloat(u.MBUsed(), 'f', 2, 64),
		MaxMB:       u.MaxMB(),
		PercentUsed: strconv.FormatFloat(u.PercentUsed(), 'f', 1, 64),
		QuotaBytes:  u.QuotaBytes,
		Keys:        u.Keys,
	}
}

// Percent parses PercentUsed, returning 0 when it is not a number.
func (s StorageStats) Percent() float64 {
	p, err := strconv.ParseFloat(s.PercentUsed, 64)
	if err != nil {
		return 0
	}
	return p
}

// CleanupRequest runs an age sweep. Zero means the server default.
type CleanupRequest struct {
	DaysOld int `json:"daysOld,omitempty"`
}

// CleanupResponse answers cleanupOldData.
type CleanupResponse struct {
	Success     bool `json:"success"`
	Removed     int  `json:"removed"`
	KeysDeleted int  `json:"keysDeleted"`
	KeysFailed  int  `json:"keysFailed,omitempty"`
}

// PageDataResponse answers getPageData.
type PageDataResponse struct {
	Highlights []domain.HighlightRecord `json:"highlights"`
	Notes      []domain.NoteRecord      `json:"notes"`
}

// SettingsResponse answers getSettings.
type SettingsResponse struct {
	Settings domain.Settings `json:"settings"`
}

// SaveSettingsRequest replaces the stored settings.
type SaveSettingsRequest struct {
	Settings domain.Settings `json:"settings"`
}

// ClearAllRequest clears the sender's domain, or every domain with All.
type ClearAllRequest struct {
	All bool `json:"all,omitempty"`
}

// ClearAllResponse answers clearAllData in the background context.
type ClearAllResponse struct {
	Success bool `json:"success"`
	Keys    int  `json:"keys,omitempty"`
}

// ToggleRequest switches a page feature on or off.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// ColorRequest changes the highlight color.
type ColorRequest struct {
	Color string `json:"color"`
}

// SelectionRequest carries the text selected when a context menu item
// was chosen.
type SelectionRequest struct {
	SelectionText string `json:"selectionText"`
}
