package cli

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// printYAML writes v as a YAML document.
func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintf(w, "  ✓  %s\n", msg)
}

func printErr(w io.Writer, msg string) {
	fmt.Fprintf(w, "  ✗  %s\n", msg)
}

func printWarn(w io.Writer, msg string) {
	fmt.Fprintf(w, "  ⚠  %s\n", msg)
}

type statsView struct {
	BytesInUse  int64   `yaml:"bytes_in_use"`
	MBUsed      string  `yaml:"mb_used"`
	MaxMB       float64 `yaml:"max_mb"`
	PercentUsed string  `yaml:"percent_used"`
	Keys        int     `yaml:"keys"`
}

func newStatsView(s message.StorageStats) statsView {
	return statsView{
		BytesInUse:  s.BytesInUse,
		MBUsed:      s.MBUsed,
		MaxMB:       s.MaxMB,
		PercentUsed: s.PercentUsed + "%",
		Keys:        s.Keys,
	}
}

type settingsView struct {
	Highlighting   bool   `yaml:"highlighting"`
	Definitions    bool   `yaml:"definitions"`
	Notes          bool   `yaml:"notes"`
	HighlightColor string `yaml:"highlight_color"`
}

func newSettingsView(s domain.Settings) settingsView {
	return settingsView{
		Highlighting:   s.HighlightingEnabled,
		Definitions:    s.DefinitionsEnabled,
		Notes:          s.NotesEnabled,
		HighlightColor: s.HighlightColor,
	}
}

type definitionView struct {
	Word         string   `yaml:"word"`
	Phonetic     string   `yaml:"phonetic,omitempty"`
	PartOfSpeech string   `yaml:"part_of_speech,omitempty"`
	Definition   string   `yaml:"definition"`
	Example      string   `yaml:"example,omitempty"`
	Synonyms     []string `yaml:"synonyms,omitempty"`
}

func newDefinitionView(d domain.Definition) definitionView {
	return definitionView{
		Word:         d.Word,
		Phonetic:     d.Phonetic,
		PartOfSpeech: d.PartOfSpeech,
		Definition:   d.Definition,
		Example:      d.Example,
		Synonyms:     d.Synonyms,
	}
}
