package friendship

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository handles directed friendship edges. The unique constraint on
// (user_id, friend_user_id) keeps links idempotent across redeliveries.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new friendship repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Link records a user->friend edge. Inserting an edge that already exists is
// a no-op.
func (r *Repository) Link(ctx context.Context, userID, friendUserID int64) error {
	ctx, span := tracing.StartSpan(ctx, "friendship.Repository.Link")
	defer span.End()

	query := `
		INSERT INTO friendship (user_id, friend_user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, friend_user_id) DO NOTHING
	`

	if _, err := database.QueryerFromContext(ctx, r.db).ExecContext(ctx, query, userID, friendUserID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID, "friend_user_id": friendUserID}).Error("Failed to link friendship")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link friendship")
	}
	return nil
}

// Exists reports whether the directed edge is present.
func (r *Repository) Exists(ctx context.Context, userID, friendUserID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "friendship.Repository.Exists")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("count(*)")
	sb.From("friendship")
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("friend_user_id", friendUserID),
	)

	query, args := sb.Build()
	var count int
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID, "friend_user_id": friendUserID}).Error("Failed to check friendship")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check friendship")
	}
	return count > 0, nil
}
