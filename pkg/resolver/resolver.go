package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// UserRepository is the user persistence surface the resolver needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, email string, attrs *models.UserAttributes) (int64, error)
	BackfillAttributes(ctx context.Context, id int64, attrs *models.UserAttributes) error
}

// ArtistRepository is the artist persistence surface the resolver needs.
type ArtistRepository interface {
	GetByRef(ctx context.Context, refAA int64) (*models.Artist, error)
	Insert(ctx context.Context, refAA int64, name string, year *int, provenance models.Provenance) (int64, error)
	MakeAuthoritative(ctx context.Context, refAA int64, name string, year *int) error
}

// Resolver maps natural keys from the streams onto materialized rows,
// creating rows on first reference. Either stream can mention an entity
// first; resolution converges to the same rows regardless of arrival order.
type Resolver struct {
	users   UserRepository
	artists ArtistRepository
	logger  ectologger.Logger
}

// NewResolver creates a new entity resolver
func NewResolver(users UserRepository, artists ArtistRepository, logger ectologger.Logger) *Resolver {
	return &Resolver{
		users:   users,
		artists: artists,
		logger:  logger,
	}
}

// ResolveUser finds or creates the user identified by email and backfills any
// attributes the stored row is still missing. created is true when this call
// inserted the row.
func (r *Resolver) ResolveUser(ctx context.Context, email string, attrs *models.UserAttributes) (*models.User, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.ResolveUser")
	defer span.End()

	existing, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := r.users.BackfillAttributes(ctx, existing.ID, attrs); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	id, err := r.users.Insert(ctx, email, attrs)
	if err != nil {
		return nil, false, err
	}
	if id == 0 {
		// another writer created the row between our select and insert
		existing, err = r.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, httperror.NewHTTPErrorf(http.StatusInternalServerError, "user %s vanished after insert conflict", email)
		}
		if err := r.users.BackfillAttributes(ctx, existing.ID, attrs); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	user := &models.User{ID: id, Email: email}
	if attrs != nil {
		user.FirstName = attrs.FirstName
		user.LastName = attrs.LastName
		user.Gender = attrs.Gender
		user.RefAA = attrs.RefAA
	}
	return user, true, nil
}

// EnsureArtistForListen finds or creates the artist a listen event points at.
// When the artist stream has not delivered the entity yet, a placeholder row
// is created under a unique sentinel name so the edge has something to attach
// to. created is true when this call inserted the placeholder.
func (r *Resolver) EnsureArtistForListen(ctx context.Context, refAA int64) (*models.Artist, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.EnsureArtistForListen")
	defer span.End()

	existing, err := r.artists.GetByRef(ctx, refAA)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	name := fmt.Sprintf("DUMMY ARTIST %s", uuid.New().String())
	id, err := r.artists.Insert(ctx, refAA, name, nil, models.ProvenancePlaceholder)
	if err != nil {
		return nil, false, err
	}
	if id == 0 {
		existing, err = r.artists.GetByRef(ctx, refAA)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, httperror.NewHTTPErrorf(http.StatusInternalServerError, "artist %d vanished after insert conflict", refAA)
		}
		return existing, false, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "ref_aa": refAA}).Info("Created placeholder artist")
	return &models.Artist{ID: id, Name: name, RefAA: refAA, Provenance: models.ProvenancePlaceholder}, true, nil
}

// UpsertArtist applies an authoritative artist event: it creates the row when
// absent, and otherwise overwrites name and year and clears placeholder
// provenance. upgraded is true when the row existed as a placeholder before
// this call.
func (r *Resolver) UpsertArtist(ctx context.Context, refAA int64, name string, year *int) (*models.Artist, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.UpsertArtist")
	defer span.End()

	existing, err := r.artists.GetByRef(ctx, refAA)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		id, err := r.artists.Insert(ctx, refAA, name, year, models.ProvenanceAuthoritative)
		if err != nil {
			return nil, false, err
		}
		if id != 0 {
			return &models.Artist{ID: id, Name: name, Year: year, RefAA: refAA, Provenance: models.ProvenanceAuthoritative}, false, nil
		}
		// a concurrent listen created the placeholder first; fall through and
		// upgrade it
		existing, err = r.artists.GetByRef(ctx, refAA)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, httperror.NewHTTPErrorf(http.StatusInternalServerError, "artist %d vanished after insert conflict", refAA)
		}
	}

	upgraded := existing.IsPlaceholder()
	if err := r.artists.MakeAuthoritative(ctx, refAA, name, year); err != nil {
		return nil, false, err
	}
	if upgraded {
		r.logger.WithContext(ctx).WithFields(map[string]any{"id": existing.ID, "ref_aa": refAA, "name": name}).Info("Upgraded placeholder artist")
	}

	return &models.Artist{ID: existing.ID, Name: name, Year: year, RefAA: refAA, Provenance: models.ProvenanceAuthoritative}, upgraded, nil
}
