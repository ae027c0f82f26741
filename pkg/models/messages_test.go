package models

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserBatch(t *testing.T) {
	t.Run("should decode an array of envelopes", func(t *testing.T) {
		value := []byte(`[{"user": {"id": 7, "email": "ada@example.com", "artist_ids": [1, 2]}, "friends": [{"id": 8, "email": "grace@example.com"}]}]`)

		batch, err := DecodeUserBatch(value)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, "ada@example.com", batch[0].User.Email)
		assert.Equal(t, int64(7), batch[0].User.RefID)
		assert.Equal(t, []int64{1, 2}, batch[0].User.ArtistIDs)
		require.Len(t, batch[0].Friends, 1)
		assert.Equal(t, "grace@example.com", batch[0].Friends[0].Email)
	})

	t.Run("should accept a single envelope as a one-element batch", func(t *testing.T) {
		value := []byte(`{"user": {"id": 7, "email": "ada@example.com"}}`)

		batch, err := DecodeUserBatch(value)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, "ada@example.com", batch[0].User.Email)
	})

	t.Run("should return a malformed error for invalid JSON", func(t *testing.T) {
		_, err := DecodeUserBatch([]byte(`{not json`))
		require.Error(t, err)
		assert.True(t, IsMalformed(err))
	})
}

func TestDecodeArtistBatch(t *testing.T) {
	t.Run("should decode an array of records", func(t *testing.T) {
		value := []byte(`[{"aa": 42, "artist_name": "Slowdive", "year": 1989, "albums": [{"release_name": "Souvlaki", "review_count": 120, "avg_rating": 4.3, "rating_count": 900}], "descriptors": ["ethereal"], "primary_genres": ["shoegaze"], "secondary_genres": ["dream pop"]}]`)

		batch, err := DecodeArtistBatch(value)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, int64(42), batch[0].RefAA)
		assert.Equal(t, "Slowdive", batch[0].Name)
		require.Len(t, batch[0].Albums, 1)
		assert.Equal(t, "Souvlaki", batch[0].Albums[0].ReleaseName)
		assert.Equal(t, []string{"shoegaze"}, batch[0].PrimaryGenres)
	})

	t.Run("should accept a single record", func(t *testing.T) {
		batch, err := DecodeArtistBatch([]byte(`{"aa": 42, "artist_name": "Slowdive"}`))
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, int64(42), batch[0].RefAA)
	})

	t.Run("should return a malformed error for invalid JSON", func(t *testing.T) {
		_, err := DecodeArtistBatch([]byte(`[{"aa": }`))
		require.Error(t, err)
		assert.True(t, IsMalformed(err))
	})
}

func TestIsMalformed(t *testing.T) {
	t.Run("should be true for 400 errors only", func(t *testing.T) {
		assert.True(t, IsMalformed(httperror.NewHTTPError(http.StatusBadRequest, "bad payload")))
		assert.False(t, IsMalformed(httperror.NewHTTPError(http.StatusInternalServerError, "db down")))
		assert.False(t, IsMalformed(errors.New("plain error")))
		assert.False(t, IsMalformed(nil))
	})
}

func TestUserRecordAttributes(t *testing.T) {
	t.Run("should map empty strings to nil", func(t *testing.T) {
		rec := UserRecord{Email: "ada@example.com"}
		attrs := rec.Attributes()
		assert.Nil(t, attrs.FirstName)
		assert.Nil(t, attrs.LastName)
		assert.Nil(t, attrs.Gender)
		assert.Nil(t, attrs.RefAA)
		assert.False(t, attrs.HasValues())
	})

	t.Run("should carry set fields", func(t *testing.T) {
		rec := UserRecord{RefID: 7, FirstName: "Ada", Email: "ada@example.com"}
		attrs := rec.Attributes()
		require.NotNil(t, attrs.FirstName)
		assert.Equal(t, "Ada", *attrs.FirstName)
		require.NotNil(t, attrs.RefAA)
		assert.Equal(t, int64(7), *attrs.RefAA)
		assert.True(t, attrs.HasValues())
	})
}

func TestDescriptorTypeTableName(t *testing.T) {
	t.Run("should map each category to its table", func(t *testing.T) {
		table, err := DescriptorTypeDescriptor.TableName()
		require.NoError(t, err)
		assert.Equal(t, "descriptors", table)

		table, err = DescriptorTypePrimaryGenre.TableName()
		require.NoError(t, err)
		assert.Equal(t, "primary_genres", table)

		table, err = DescriptorTypeSecondaryGenre.TableName()
		require.NoError(t, err)
		assert.Equal(t, "secondary_genres", table)
	})

	t.Run("should reject unknown categories", func(t *testing.T) {
		_, err := DescriptorType("MOOD").TableName()
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}
