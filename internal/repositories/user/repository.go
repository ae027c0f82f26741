package user

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

// Repository handles user row persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new user repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByEmail returns the user with the given email, or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.GetByEmail")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "first_name", "last_name", "email", "gender", "ref_aa")
	sb.From("users")
	sb.Where(sb.Equal("email", email))

	query, args := sb.Build()
	var user models.User
	if err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &user, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"email": email}).Error("Failed to get user by email")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	return &user, nil
}

// Insert creates a user row. Returns (0, nil) when a concurrent insert on the
// same email wins the race; callers re-select in that case.
func (r *Repository) Insert(ctx context.Context, email string, attrs *models.UserAttributes) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.Insert")
	defer span.End()

	if attrs == nil {
		attrs = &models.UserAttributes{}
	}

	query := `
		INSERT INTO users (first_name, last_name, email, gender, ref_aa)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	var id int64
	err := database.QueryerFromContext(ctx, r.db).GetContext(ctx, &id, query,
		attrs.FirstName, attrs.LastName, email, attrs.Gender, attrs.RefAA,
	)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, nil // lost the insert race, row exists
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"email": email}).Error("Failed to insert user")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert user")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "email": email}).Info("Created user")
	return id, nil
}

// BackfillAttributes fills columns that are still null from the given
// attributes. Existing non-null values are never overwritten.
func (r *Repository) BackfillAttributes(ctx context.Context, id int64, attrs *models.UserAttributes) error {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.BackfillAttributes")
	defer span.End()

	if !attrs.HasValues() {
		return nil
	}

	query := `
		UPDATE users
		SET first_name = COALESCE(first_name, $2),
		    last_name = COALESCE(last_name, $3),
		    gender = COALESCE(gender, $4),
		    ref_aa = COALESCE(ref_aa, $5)
		WHERE id = $1
	`

	if _, err := database.QueryerFromContext(ctx, r.db).ExecContext(ctx, query,
		id, attrs.FirstName, attrs.LastName, attrs.Gender, attrs.RefAA,
	); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to backfill user attributes")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}
	return nil
}
