package listen

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository handles user->artist listen edges.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listen repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Link records a user->artist edge. Inserting an edge that already exists is
// a no-op.
func (r *Repository) Link(ctx context.Context, userID, artistID int64) error {
	ctx, span := tracing.StartSpan(ctx, "listen.Repository.Link")
	defer span.End()

	query := `
		INSERT INTO listen (user_id, artist_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, artist_id) DO NOTHING
	`

	if _, err := database.QueryerFromContext(ctx, r.db).ExecContext(ctx, query, userID, artistID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID, "artist_id": artistID}).Error("Failed to link listen")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link listen")
	}
	return nil
}

// Exists reports whether the edge is present.
func (r *Repository) Exists(ctx context.Context, userID, artistID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "listen.Repository.Exists")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("count(*)")
	sb.From("listen")
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("artist_id", artistID),
	)

	query, args := sb.Build()
	var count int
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID, "artist_id": artistID}).Error("Failed to check listen")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check listen")
	}
	return count > 0, nil
}
