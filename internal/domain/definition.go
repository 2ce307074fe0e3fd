package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxSynonyms caps Definition.Synonyms.
const MaxSynonyms = 5

// Definition is the canonical dictionary result for one word.
// Values are never mutated after construction; Clone before handing out
// a copy whose slice may be changed.
type Definition struct {
	Word         string   `json:"word"`
	Phonetic     string   `json:"phonetic"`
	PartOfSpeech string   `json:"partOfSpeech"`
	Definition   string   `json:"definition"`
	Example      string   `json:"example"`
	Synonyms     []string `json:"synonyms"`
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	d.Synonyms = slices.Clone(d.Synonyms)
	return d
}

// LookupErrorKind classifies a failed lookup.
type LookupErrorKind string

const (
	LookupInvalidWord LookupErrorKind = "invalid_word"
	LookupNotFound    LookupErrorKind = "not_found"
	LookupHTTPError   LookupErrorKind = "http_error"
	LookupTimeout     LookupErrorKind = "timeout"
	LookupMalformed   LookupErrorKind = "malformed"
)

func (k LookupErrorKind) IsValid() bool {
	switch k {
	case LookupInvalidWord, LookupNotFound, LookupHTTPError, LookupTimeout, LookupMalformed:
		return true
	}
	return false
}

// Label is the short error title shown next to the message.
func (k LookupErrorKind) Label() string {
	switch k {
	case LookupTimeout:
		return "Request timeout"
	case LookupInvalidWord:
		return "Invalid word"
	default:
		return "Definition not available"
	}
}

// User-facing lookup messages.
const (
	MsgTimeout         = "The request took too long. Please try again."
	MsgUnavailable     = "Could not fetch definition. Please try again later."
	MsgInvalidWord     = "Please select a single word of at least two letters."
	MsgLoadFailed      = "Error loading definition. Please try again."
	msgNotFoundPattern = "No definition found for %q. Please check the spelling."
)

// NotFoundMessage is the user message for a word the dictionary does not know.
func NotFoundMessage(word string) string {
	return fmt.Sprintf(msgNotFoundPattern, word)
}

// LookupError is the error variant of a Definition. Message is safe to show
// to the user; Err carries internal diagnostics.
type LookupError struct {
	Word    string
	Kind    LookupErrorKind
	Status  int
	Message string
	Err     error
}

// NewLookupError builds a LookupError with the default message for kind.
func NewLookupError(word string, kind LookupErrorKind, err error) *LookupError {
	return &LookupError{
		Word:    word,
		Kind:    kind,
		Message: DefaultLookupMessage(word, kind),
		Err:     err,
	}
}

// DefaultLookupMessage returns the user message used for kind.
func DefaultLookupMessage(word string, kind LookupErrorKind) string {
	switch kind {
	case LookupNotFound:
		return NotFoundMessage(word)
	case LookupTimeout:
		return MsgTimeout
	case LookupInvalidWord:
		return MsgInvalidWord
	default:
		return MsgUnavailable
	}
}

func (e *LookupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lookup %q: %s", e.Word, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is lets callers match lookup failures against the shared sentinels.
func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == LookupInvalidWord
	case ErrNotFound:
		return e.Kind == LookupNotFound
	}
	return false
}

// AsLookupError extracts a *LookupError from err.
func AsLookupError(err error) (*LookupError, bool) {
	var le *LookupError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
