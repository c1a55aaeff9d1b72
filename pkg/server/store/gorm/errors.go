package gorm

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

// Classify maps database errors onto store sentinel errors, keeping the
// original message for logs.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Detail)
	case "23503":
		return fmt.Errorf("%w: %s", store.ErrInvalidReference, pgErr.Detail)
	case "23502", "23514", "22P02", "22003", "22007", "22008", "42703":
		return fmt.Errorf("%w: %s", store.ErrInvalidInput, pgErr.Message)
	}
	return err
}
