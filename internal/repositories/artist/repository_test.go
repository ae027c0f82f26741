package artist_test

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

	"github.com/Ramsey-B/aster/internal/repositories/artist"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
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

func uniqueRef() int64 {
	return int64(uuid.New().ID())
}

func intPtr(i int) *int { return &i }

func TestArtistRepository(t *testing.T) {
	db := getTestDB(t)
	repo := artist.NewRepository(db, getTestLogger())
	ctx := context.Background()

	t.Run("should return nil for an unknown ref", func(t *testing.T) {
		found, err := repo.GetByRef(ctx, uniqueRef())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("should insert a placeholder and fetch by ref", func(t *testing.T) {
		refAA := uniqueRef()
		id, err := repo.Insert(ctx, refAA, "DUMMY ARTIST "+uuid.New().String(), nil, models.ProvenancePlaceholder)
		require.NoError(t, err)
		require.NotZero(t, id)

		found, err := repo.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		assert.True(t, found.IsPlaceholder())
		assert.Nil(t, found.Year)
	})

	t.Run("should signal a lost race with a zero id", func(t *testing.T) {
		refAA := uniqueRef()
		id, err := repo.Insert(ctx, refAA, "Slowdive", intPtr(1989), models.ProvenanceAuthoritative)
		require.NoError(t, err)
		require.NotZero(t, id)

		again, err := repo.Insert(ctx, refAA, "Slowdive", intPtr(1989), models.ProvenanceAuthoritative)
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("should upgrade a placeholder in place", func(t *testing.T) {
		refAA := uniqueRef()
		id, err := repo.Insert(ctx, refAA, "DUMMY ARTIST "+uuid.New().String(), nil, models.ProvenancePlaceholder)
		require.NoError(t, err)

		err = repo.MakeAuthoritative(ctx, refAA, "Slowdive", intPtr(1989))
		require.NoError(t, err)

		found, err := repo.GetByRef(ctx, refAA)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Slowdive", found.Name)
		require.NotNil(t, found.Year)
		assert.Equal(t, 1989, *found.Year)
		assert.Equal(t, models.ProvenanceAuthoritative, found.Provenance)
	})
}
