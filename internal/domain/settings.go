package domain

// SettingsKey is the storage key of the synchronized settings record.
const SettingsKey = "settings"

// DefaultHighlightColor is used until the user picks another color.
const DefaultHighlightColor = "#ffeb3b"

// Settings is the small synchronized settings record. It is injected into
// the page session at construction and re-read on every reload.
type Settings struct {
	HighlightingEnabled bool   `json:"highlightingEnabled"`
	DefinitionsEnabled  bool   `json:"definitionsEnabled"`
	NotesEnabled        bool   `json:"notesEnabled"`
	HighlightColor      string `json:"highlightColor"`
}

// DefaultSettings returns the settings written on install.
func DefaultSettings() Settings {
	return Settings{
		HighlightingEnabled: true,
		DefinitionsEnabled:  true,
		NotesEnabled:        true,
		HighlightColor:      DefaultHighlightColor,
	}
}

// Validate checks the settings before they are stored.
func (s Settings) Validate() error {
	if !IsHexColor(s.HighlightColor) {
		return NewValidationError("highlightColor", "must be a hex color")
	}
	return nil
}
