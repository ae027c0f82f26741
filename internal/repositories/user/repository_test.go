package user_test

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

	"github.com/Ramsey-B/aster/internal/repositories/user"
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

func uniqueEmail() string {
	return fmt.Sprintf("%s@example.com", uuid.New().String())
}

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	db := getTestDB(t)
	repo := user.NewRepository(db, getTestLogger())
	ctx := context.Background()

	t.Run("should return nil for an unknown email", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, uniqueEmail())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("should insert and fetch by email", func(t *testing.T) {
		email := uniqueEmail()
		id, err := repo.Insert(ctx, email, &models.UserAttributes{FirstName: strPtr("Ada")})
		require.NoError(t, err)
		require.NotZero(t, id)

		found, err := repo.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		require.NotNil(t, found.FirstName)
		assert.Equal(t, "Ada", *found.FirstName)
	})

	t.Run("should signal a lost race with a zero id", func(t *testing.T) {
		email := uniqueEmail()
		id, err := repo.Insert(ctx, email, nil)
		require.NoError(t, err)
		require.NotZero(t, id)

		again, err := repo.Insert(ctx, email, nil)
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("should backfill only null attributes", func(t *testing.T) {
		email := uniqueEmail()
		id, err := repo.Insert(ctx, email, &models.UserAttributes{FirstName: strPtr("Ada")})
		require.NoError(t, err)

		err = repo.BackfillAttributes(ctx, id, &models.UserAttributes{
			FirstName: strPtr("Augusta"),
			LastName:  strPtr("Lovelace"),
		})
		require.NoError(t, err)

		found, err := repo.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Ada", *found.FirstName)
		require.NotNil(t, found.LastName)
		assert.Equal(t, "Lovelace", *found.LastName)
	})
}
