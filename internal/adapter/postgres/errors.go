package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors for the storage
// item identified by key. Context errors pass through unmapped.
func MapError(err error, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("storage item %q: %w", key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("storage item %q: %w", key, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("storage item %q: %w", key, domain.ErrConflict)
		case "22P02", "23514": // invalid_text_representation, check_violation
			return fmt.Errorf("storage item %q: %w", key, domain.ErrValidation)
		case "53100", "54000": // disk_full, program_limit_exceeded
			return fmt.Errorf("storage item %q: %w", key, domain.ErrQuotaExceeded)
		}
	}

	return fmt.Errorf("storage item %q: %w", key, err)
}
