package normalizers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYear(t *testing.T) {
	t.Run("should return nil for empty value", func(t *testing.T) {
		assert.Nil(t, ExtractYear(nil))
		assert.Nil(t, ExtractYear(json.RawMessage("null")))
	})

	t.Run("should read a bare number as a year", func(t *testing.T) {
		year := ExtractYear(json.RawMessage("1994"))
		require.NotNil(t, year)
		assert.Equal(t, 1994, *year)
	})

	t.Run("should read a large number as unix millis", func(t *testing.T) {
		// 2007-03-06T00:00:00Z
		year := ExtractYear(json.RawMessage("1173139200000"))
		require.NotNil(t, year)
		assert.Equal(t, 2007, *year)
	})

	t.Run("should read a year prefix from a date string", func(t *testing.T) {
		year := ExtractYear(json.RawMessage(`"1969-07-01"`))
		require.NotNil(t, year)
		assert.Equal(t, 1969, *year)
	})

	t.Run("should read a plain year string", func(t *testing.T) {
		year := ExtractYear(json.RawMessage(`"2013"`))
		require.NotNil(t, year)
		assert.Equal(t, 2013, *year)
	})

	t.Run("should read a BSON extended JSON date", func(t *testing.T) {
		year := ExtractYear(json.RawMessage(`{"$date": "1991-09-24T00:00:00Z"}`))
		require.NotNil(t, year)
		assert.Equal(t, 1991, *year)

		year = ExtractYear(json.RawMessage(`{"$date": 1173139200000}`))
		require.NotNil(t, year)
		assert.Equal(t, 2007, *year)
	})

	t.Run("should return nil for garbage", func(t *testing.T) {
		assert.Nil(t, ExtractYear(json.RawMessage(`"abc"`)))
		assert.Nil(t, ExtractYear(json.RawMessage(`{"other": true}`)))
		assert.Nil(t, ExtractYear(json.RawMessage("-5")))
	})
}

func TestDistinctStrings(t *testing.T) {
	t.Run("should remove duplicates preserving order", func(t *testing.T) {
		result := DistinctStrings([]string{"shoegaze", "dream pop", "shoegaze", "noise"})
		assert.Equal(t, []string{"shoegaze", "dream pop", "noise"}, result)
	})

	t.Run("should be case sensitive", func(t *testing.T) {
		result := DistinctStrings([]string{"Dream Pop", "dream pop"})
		assert.Equal(t, []string{"Dream Pop", "dream pop"}, result)
	})

	t.Run("should handle empty input", func(t *testing.T) {
		assert.Empty(t, DistinctStrings(nil))
	})
}
