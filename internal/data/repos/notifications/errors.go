package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
)

// mapDBError translates storage failures into typed API errors.
func mapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.New(http.StatusNotFound, "not_found", wrapped)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusServiceUnavailable, "unavailable", wrapped)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apierr.New(http.StatusConflict, "conflict", wrapped) // unique_violation
		case "40001", "40P01", "55P03", "57P01":
			return apierr.New(http.StatusServiceUnavailable, "unavailable", wrapped)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return apierr.New(http.StatusConflict, "conflict", wrapped)
	}
	return apierr.Internal("db_error", wrapped)
}
