package processor_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/internal/repositories/album"
	"github.com/Ramsey-B/aster/internal/repositories/artist"
	"github.com/Ramsey-B/aster/internal/repositories/descriptor"
	"github.com/Ramsey-B/aster/internal/repositories/descriptorasoc"
	"github.com/Ramsey-B/aster/internal/repositories/friendship"
	"github.com/Ramsey-B/aster/internal/repositories/listen"
	"github.com/Ramsey-B/aster/internal/repositories/user"
	"github.com/Ramsey-B/aster/pkg/associations"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/processor"
	"github.com/Ramsey-B/aster/pkg/resolver"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	t.Helper()

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		t.Skip("DB_HOST not set; skipping database integration test")
	}
	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "aster"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPass, dbName)
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

type pipeline struct {
	db          database.DB
	users       *user.Repository
	artists     *artist.Repository
	friendships *friendship.Repository
	listens     *listen.Repository
	asocs       *descriptorasoc.Repository
	userProc    *processor.UserProcessor
	artistProc  *processor.ArtistProcessor
}

func newPipeline(t *testing.T) *pipeline {
	db := getTestDB(t)
	logger := getTestLogger()

	users := user.NewRepository(db, logger)
	artists := artist.NewRepository(db, logger)
	albums := album.NewRepository(db, logger)
	descriptors := descriptor.NewRepository(db, logger)
	friendships := friendship.NewRepository(db, logger)
	listens := listen.NewRepository(db, logger)
	asocs := descriptorasoc.NewRepository(db, logger)

	res := resolver.NewResolver(users, artists, logger)
	writer := associations.NewWriter(friendships, listens, descriptors, asocs, logger)

	return &pipeline{
		db:          db,
		users:       users,
		artists:     artists,
		friendships: friendships,
		listens:     listens,
		asocs:       asocs,
		userProc:    processor.NewUserProcessor(db, res, writer, nil, logger),
		artistProc:  processor.NewArtistProcessor(db, res, writer, albums, nil, logger),
	}
}

// brokenAlbumStore fails every insert so a batch dies partway through its
// transaction.
type brokenAlbumStore struct{}

func (brokenAlbumStore) GetByNameAndArtist(ctx context.Context, name string, artistID int64) (*models.Album, error) {
	return nil, nil
}

func (brokenAlbumStore) Insert(ctx context.Context, artistID int64, rec models.AlbumRecord) (int64, error) {
	return 0, fmt.Errorf("insert album: connection reset by peer")
}

func message(topic string, value string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{
		Topic: topic,
		Value: []byte(value),
	}
}

func TestUserProcessor_Handle(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	t.Run("should materialize the user with friendships and listens", func(t *testing.T) {
		email := fmt.Sprintf("%s@example.com", uuid.New().String())
		friendEmail := fmt.Sprintf("%s@example.com", uuid.New().String())
		refAA := int64(uuid.New().ID())

		value := fmt.Sprintf(`[{
			"user": {"id": 1, "first_name": "Ada", "last_name": "Lovelace", "email": %q, "artist_ids": [%d]},
			"friends": [{"id": 2, "email": %q}]
		}]`, email, refAA, friendEmail)

		err := p.userProc.Handle(ctx, message("uni-users", value))
		require.NoError(t, err)

		u, err := p.users.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, u)

		friend, err := p.users.GetByEmail(ctx, friendEmail)
		require.NoError(t, err)
		require.NotNil(t, friend)

		linked, err := p.friendships.Exists(ctx, u.ID, friend.ID)
		require.NoError(t, err)
		assert.True(t, linked)

		reverse, err := p.friendships.Exists(ctx, friend.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, reverse, "reciprocal edge must not be implied")

		a, err := p.artists.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.True(t, a.IsPlaceholder())

		heard, err := p.listens.Exists(ctx, u.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, heard)
	})

	t.Run("should be idempotent across redeliveries", func(t *testing.T) {
		email := fmt.Sprintf("%s@example.com", uuid.New().String())
		refAA := int64(uuid.New().ID())
		value := fmt.Sprintf(`{"user": {"id": 3, "email": %q, "artist_ids": [%d]}}`, email, refAA)

		require.NoError(t, p.userProc.Handle(ctx, message("uni-users", value)))
		require.NoError(t, p.userProc.Handle(ctx, message("uni-users", value)))

		var count int
		err := p.db.GetContext(ctx, &count, "SELECT count(*) FROM users WHERE email = $1", email)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		err := p.userProc.Handle(ctx, message("uni-users", `{broken`))
		require.Error(t, err)
		assert.True(t, models.IsMalformed(err))

		err = p.userProc.Handle(ctx, message("uni-users", `{"user": {"id": 4}}`))
		require.Error(t, err)
		assert.True(t, models.IsMalformed(err), "missing email should be malformed")
	})
}

func TestArtistProcessor_Handle(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	t.Run("should upgrade a placeholder created by an earlier listen", func(t *testing.T) {
		email := fmt.Sprintf("%s@example.com", uuid.New().String())
		refAA := int64(uuid.New().ID())

		userValue := fmt.Sprintf(`{"user": {"id": 5, "email": %q, "artist_ids": [%d]}}`, email, refAA)
		require.NoError(t, p.userProc.Handle(ctx, message("uni-users", userValue)))

		placeholder, err := p.artists.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, placeholder)
		require.True(t, placeholder.IsPlaceholder())

		artistValue := fmt.Sprintf(`{
			"aa": %d,
			"artist_name": "Slowdive",
			"year": {"$date": "1989-01-01T00:00:00Z"},
			"albums": [{"release_name": "Souvlaki", "review_count": 120, "avg_rating": 4.3, "rating_count": 900}],
			"descriptors": ["ethereal", "ethereal"],
			"primary_genres": ["shoegaze"],
			"secondary_genres": ["dream pop"]
		}`, refAA)
		require.NoError(t, p.artistProc.Handle(ctx, message("uni-artists", artistValue)))

		upgraded, err := p.artists.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, upgraded)
		assert.Equal(t, placeholder.ID, upgraded.ID, "edges must survive reconciliation")
		assert.Equal(t, "Slowdive", upgraded.Name)
		require.NotNil(t, upgraded.Year)
		assert.Equal(t, 1989, *upgraded.Year)
		assert.Equal(t, models.ProvenanceAuthoritative, upgraded.Provenance)

		u, err := p.users.GetByEmail(ctx, email)
		require.NoError(t, err)
		heard, err := p.listens.Exists(ctx, u.ID, upgraded.ID)
		require.NoError(t, err)
		assert.True(t, heard)

		asocs, err := p.asocs.ListByArtist(ctx, upgraded.ID)
		require.NoError(t, err)
		assert.Len(t, asocs, 3, "duplicate descriptors collapse, categories stay apart")
	})

	t.Run("should be idempotent across redeliveries", func(t *testing.T) {
		refAA := int64(uuid.New().ID())
		value := fmt.Sprintf(`{
			"aa": %d,
			"artist_name": "Duster",
			"year": 1998,
			"albums": [{"release_name": "Stratosphere", "review_count": 50, "avg_rating": 4.1, "rating_count": 400}],
			"descriptors": ["slowcore"]
		}`, refAA)

		require.NoError(t, p.artistProc.Handle(ctx, message("uni-artists", value)))
		require.NoError(t, p.artistProc.Handle(ctx, message("uni-artists", value)))

		a, err := p.artists.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, a)

		var albumCount int
		err = p.db.GetContext(ctx, &albumCount, "SELECT count(*) FROM albums WHERE artist_id = $1", a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, albumCount)

		asocs, err := p.asocs.ListByArtist(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, asocs, 1)
	})

	t.Run("should roll back the whole batch when a write fails partway", func(t *testing.T) {
		logger := getTestLogger()
		res := resolver.NewResolver(p.users, p.artists, logger)
		writer := associations.NewWriter(p.friendships, p.listens, descriptor.NewRepository(p.db, logger), p.asocs, logger)
		broken := processor.NewArtistProcessor(p.db, res, writer, brokenAlbumStore{}, nil, logger)

		refA := int64(uuid.New().ID())
		refB := int64(uuid.New().ID())
		tag := uuid.New().String()

		// The first record commits cleanly on its own; the second dies at the
		// album insert. Nothing from either may survive.
		value := fmt.Sprintf(`[
			{"aa": %d, "artist_name": "First Act", "year": 1991, "descriptors": [%q]},
			{"aa": %d, "artist_name": "Second Act", "year": 1992, "albums": [{"release_name": "Doomed"}]}
		]`, refA, tag, refB)

		err := broken.Handle(ctx, message("uni-artists", value))
		require.Error(t, err)

		a, err := p.artists.GetByRef(ctx, refA)
		require.NoError(t, err)
		assert.Nil(t, a, "first record's artist must be rolled back")

		b, err := p.artists.GetByRef(ctx, refB)
		require.NoError(t, err)
		assert.Nil(t, b)

		var tagCount int
		err = p.db.GetContext(ctx, &tagCount, "SELECT count(*) FROM descriptors WHERE description = $1", tag)
		require.NoError(t, err)
		assert.Equal(t, 0, tagCount, "first record's descriptor must be rolled back")
	})

	t.Run("should reject records without a ref", func(t *testing.T) {
		err := p.artistProc.Handle(ctx, message("uni-artists", `{"artist_name": "No Ref"}`))
		require.Error(t, err)
		assert.True(t, models.IsMalformed(err))
	})
}
