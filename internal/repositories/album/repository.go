package album

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository handles album row persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new album repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByNameAndArtist returns the album with the given natural key, or nil when
// absent.
func (r *Repository) GetByNameAndArtist(ctx context.Context, name string, artistID int64) (*models.Album, error) {
	ctx, span := tracing.StartSpan(ctx, "album.Repository.GetByNameAndArtist")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "reviews", "avg_rating", "ratings", "artist_id")
	sb.From("albums")
	sb.Where(
		sb.Equal("name", name),
		sb.Equal("artist_id", artistID),
	)

	query, args := sb.Build()
	var album models.Album
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &album, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name, "artist_id": artistID}).Error("Failed to get album")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get album")
	}
	return &album, nil
}

// Insert creates an album row. Returns (0, nil) when a concurrent insert on
// the same (name, artist_id) wins the race.
func (r *Repository) Insert(ctx context.Context, artistID int64, rec models.AlbumRecord) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "album.Repository.Insert")
	defer span.End()

	query := `
		INSERT INTO albums (name, reviews, avg_rating, ratings, artist_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, artist_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &id, query,
		rec.ReleaseName, rec.ReviewCount, rec.AvgRating, rec.RatingCount, artistID,
	)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, nil // lost the insert race, row exists
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": rec.ReleaseName, "artist_id": artistID}).Error("Failed to insert album")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert album")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "name": rec.ReleaseName, "artist_id": artistID}).Info("Created album")
	return id, nil
}
