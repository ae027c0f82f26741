package descriptorasoc

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

// Repository handles artist->descriptor association edges. descriptor_type
// disambiguates which category table descriptor_id points into, so the same
// numeric id can appear once per category.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new descriptor association repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Link records an artist->descriptor edge under the given category. Inserting
// an edge that already exists is a no-op.
func (r *Repository) Link(ctx context.Context, artistID, descriptorID int64, category models.DescriptorType) error {
	ctx, span := tracing.StartSpan(ctx, "descriptorasoc.Repository.Link")
	defer span.End()

	if _, err := category.TableName(); err != nil {
		return err
	}

	query := `
		INSERT INTO descriptors_asoc (artist_id, descriptor_id, descriptor_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (artist_id, descriptor_id, descriptor_type) DO NOTHING
	`

	if _, err := database.QueryerFromContext(ctx, r.db).ExecContext(ctx, query, artistID, descriptorID, string(category)); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"artist_id": artistID, "descriptor_id": descriptorID, "descriptor_type": category}).Error("Failed to link descriptor")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link descriptor")
	}
	return nil
}

// ListByArtist returns all association edges for an artist.
func (r *Repository) ListByArtist(ctx context.Context, artistID int64) ([]models.DescriptorAssociation, error) {
	ctx, span := tracing.StartSpan(ctx, "descriptorasoc.Repository.ListByArtist")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "artist_id", "descriptor_id", "descriptor_type")
	sb.From("descriptors_asoc")
	sb.Where(sb.Equal("artist_id", artistID))

	query, args := sb.Build()
	var asocs []models.DescriptorAssociation
	if err := database.QueryerFromContext(ctx, r.db).SelectContext(ctx, &asocs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"artist_id": artistID}).Error("Failed to list descriptor associations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list descriptor associations")
	}
	return asocs, nil
}
