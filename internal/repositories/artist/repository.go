package artist

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

// Repository handles artist row persistence. Artist rows are the contention
// point between the two stream consumers: both may target the same ref_aa, so
// every insert goes through the unique constraint and reports the race back to
// the caller instead of failing the message.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new artist repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByRef returns the artist with the given external reference, or nil when
// absent.
func (r *Repository) GetByRef(ctx context.Context, refAA int64) (*models.Artist, error) {
	ctx, span := tracing.StartSpan(ctx, "artist.Repository.GetByRef")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "year", "ref_aa", "provenance")
	sb.From("artists")
	sb.Where(sb.Equal("ref_aa", refAA))

	query, args := sb.Build()
	var artist models.Artist
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &artist, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ref_aa": refAA}).Error("Failed to get artist by ref")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get artist")
	}
	return &artist, nil
}

// Insert creates an artist row with the given provenance. Returns (0, nil)
// when a concurrent insert on the same ref_aa wins the race; callers re-select
// in that case.
func (r *Repository) Insert(ctx context.Context, refAA int64, name string, year *int, provenance models.Provenance) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "artist.Repository.Insert")
	defer span.End()

	query := `
		INSERT INTO artists (name, year, ref_aa, provenance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ref_aa) DO NOTHING
		RETURNING id
	`

	var id int64
	err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &id, query, name, year, refAA, provenance)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, nil // lost the insert race, row exists
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ref_aa": refAA}).Error("Failed to insert artist")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert artist")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"ref_aa":     refAA,
		"provenance": provenance,
	}).Info("Created artist")
	return id, nil
}

// MakeAuthoritative updates an existing row in place with source metadata.
// This is the reconciliation write: a placeholder created for a dangling
// listen reference becomes the real artist without changing its id, so every
// listen edge pointing at it stays valid.
func (r *Repository) MakeAuthoritative(ctx context.Context, refAA int64, name string, year *int) error {
	ctx, span := tracing.StartSpan(ctx, "artist.Repository.MakeAuthoritative")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("artists")
	sb.Set(
		sb.Assign("name", name),
		sb.Assign("year", year),
		sb.Assign("provenance", models.ProvenanceAuthoritative),
	)
	sb.Where(sb.Equal("ref_aa", refAA))

	query, args := sb.Build()
	if _, err := database.QueryerFromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ref_aa": refAA}).Error("Failed to update artist")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update artist")
	}
	return nil
}
