package page

import (
	"context"
	"log/slog"
)

// Level is the tone of a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification texts.
const (
	MsgHighlighted      = "Text highlighted!"
	MsgHighlightRemoved = "Highlight removed"
	MsgHighlightFailed  = "Could not highlight this text"
	MsgNoteAdded        = "Note added!"
	MsgNoteDeleted      = "Note deleted"
	MsgAllCleared       = "All data cleared"
)

// Notifier shows brief confirmations to the user.
type Notifier interface {
	Notify(ctx context.Context, level Level, msg string)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, level Level, msg string) {
	lvl := slog.LevelInfo
	if level == LevelError {
		lvl = slog.LevelWarn
	}
	n.log.Log(ctx, lvl, msg, slog.String("level", level.String()))
}
