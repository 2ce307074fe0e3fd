package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxHighlightTextLength bounds the text of a single highlight, in characters.
const MaxHighlightTextLength = 1000

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether s is a #rgb or #rrggbb color.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// Record is anything stored in a per-domain collection.
type Record interface {
	RecordID() string
	// RecordTime is the creation time in Unix milliseconds.
	RecordTime() int64
}

// HighlightRecord is a persisted highlight. Anchor is serialized as
// "xpath" to stay readable by existing stored data.
type HighlightRecord struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Color     string `json:"color"`
	Timestamp int64  `json:"timestamp"`
	Anchor    string `json:"xpath"`
}

func (h HighlightRecord) RecordID() string  { return h.ID }
func (h HighlightRecord) RecordTime() int64 { return h.Timestamp }

// Validate checks the record before it is stored.
func (h HighlightRecord) Validate() error {
	var errs []FieldError
	if h.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "required"})
	}
	switch n := utf8.RuneCountInString(h.Text); {
	case strings.TrimSpace(h.Text) == "":
		errs = append(errs, FieldError{Field: "text", Message: "required"})
	case n > MaxHighlightTextLength:
		errs = append(errs, FieldError{Field: "text", Message: "too long"})
	}
	if !IsHexColor(h.Color) {
		errs = append(errs, FieldError{Field: "color", Message: "must be a hex color"})
	}
	if h.Anchor == "" {
		errs = append(errs, FieldError{Field: "xpath", Message: "required"})
	}
	if h.Timestamp <= 0 {
		errs = append(errs, FieldError{Field: "timestamp", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// NoteRecord is a free-form note attached to a page.
type NoteRecord struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	PageURL   string `json:"url"`
}

func (n NoteRecord) RecordID() string  { return n.ID }
func (n NoteRecord) RecordTime() int64 { return n.Timestamp }

// Validate checks the note before it is stored.
func (n NoteRecord) Validate() error {
	var errs []FieldError
	if n.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "required"})
	}
	if strings.TrimSpace(n.Text) == "" {
		errs = append(errs, FieldError{Field: "text", Message: "required"})
	}
	if n.Timestamp <= 0 {
		errs = append(errs, FieldError{Field: "timestamp", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// StorageKey returns the key of the collection of type t for domain.
func StorageKey(t RecordType, domain string) string {
	return string(t) + "_" + domain
}

// ParseStorageKey splits a record key into its type and domain.
// ok is false for keys that do not belong to a record collection.
func ParseStorageKey(key string) (t RecordType, domain string, ok bool) {
	for _, rt := range RecordTypes() {
		prefix := string(rt) + "_"
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return rt, key[len(prefix):], true
		}
	}
	return "", "", false
}

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// TimeFromMillis converts Unix milliseconds to a time.Time.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
