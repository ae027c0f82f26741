package descriptor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository handles descriptor rows across the three category tables. The
// category decides which table a statement hits; description matching is
// byte-exact, no case folding.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new descriptor repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByDescription returns the descriptor with the given text in the
// category's table, or nil when absent.
func (r *Repository) GetByDescription(ctx context.Context, category models.DescriptorType, description string) (*models.Descriptor, error) {
	ctx, span := tracing.StartSpan(ctx, "descriptor.Repository.GetByDescription")
	defer span.End()

	table, err := category.TableName()
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "description")
	sb.From(table)
	sb.Where(sb.Equal("description", description))

	query, args := sb.Build()
	var desc models.Descriptor
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &desc, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"category": category, "description": description}).Error("Failed to get descriptor")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get descriptor")
	}
	return &desc, nil
}

// Insert creates a descriptor row in the category's table. Returns (0, nil)
// when a concurrent insert of the same description wins the race.
func (r *Repository) Insert(ctx context.Context, category models.DescriptorType, description string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "descriptor.Repository.Insert")
	defer span.End()

	table, err := category.TableName()
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (description)
		VALUES ($1)
		ON CONFLICT (description) DO NOTHING
		RETURNING id
	`, table)

	var id int64
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &id, query, description); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, nil // lost the insert race, row exists
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"category": category, "description": description}).Error("Failed to insert descriptor")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert descriptor")
	}
	return id, nil
}
