package models

import (
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Wire records for the two upstream topics. The extraction services publish
// whole query results, so a message value is normally a JSON array; a single
// object is accepted as a one-element batch.

// UserRecord is a user as shipped on the uni-users topic. Friend payloads are
// user-shaped too and may carry their own artist_ids.
type UserRecord struct {
	RefID     int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email" validate:"required,email"`
	Gender    string  `json:"gender"`
	ArtistIDs []int64 `json:"artist_ids"`
}

// Attributes converts the wire record into resolver attributes, mapping empty
// strings to nil so they never clobber stored values.
func (r *UserRecord) Attributes() *UserAttributes {
	attrs := &UserAttributes{}
	if r.FirstName != "" {
		attrs.FirstName = &r.FirstName
	}
	if r.LastName != "" {
		attrs.LastName = &r.LastName
	}
	if r.Gender != "" {
		attrs.Gender = &r.Gender
	}
	if r.RefID != 0 {
		attrs.RefAA = &r.RefID
	}
	return attrs
}

// UserEnvelope is one element of a uni-users batch: the primary user plus the
// friends collected from the social graph.
type UserEnvelope struct {
	User    *UserRecord  `json:"user" validate:"required"`
	Friends []UserRecord `json:"friends" validate:"dive"`
}

// ArtistRecord is an artist as shipped on the uni-artists topic. The aa field
// is the external reference id listen events point at. Year stays raw because
// the source serializes it inconsistently (see normalizers.ExtractYear).
type ArtistRecord struct {
	RefAA           int64           `json:"aa" validate:"required"`
	Name            string          `json:"artist_name" validate:"required"`
	Year            json.RawMessage `json:"year"`
	Albums          []AlbumRecord   `json:"albums" validate:"dive"`
	Descriptors     []string        `json:"descriptors"`
	PrimaryGenres   []string        `json:"primary_genres"`
	SecondaryGenres []string        `json:"secondary_genres"`
}

// AlbumRecord is an album payload nested in an artist record.
type AlbumRecord struct {
	ReleaseName string   `json:"release_name" validate:"required"`
	ReviewCount int      `json:"review_count"`
	AvgRating   *float64 `json:"avg_rating"`
	RatingCount int      `json:"rating_count"`
}

// DecodeUserBatch decodes a uni-users message value. Decode failures are
// malformed-message errors (StatusBadRequest) so the consumer can quarantine
// instead of redelivering forever.
func DecodeUserBatch(value []byte) ([]UserEnvelope, error) {
	var batch []UserEnvelope
	if err := json.Unmarshal(value, &batch); err == nil {
		return batch, nil
	}

	var single UserEnvelope
	if err := json.Unmarshal(value, &single); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "malformed user message: %v", err)
	}
	return []UserEnvelope{single}, nil
}

// DecodeArtistBatch decodes a uni-artists message value.
func DecodeArtistBatch(value []byte) ([]ArtistRecord, error) {
	var batch []ArtistRecord
	if err := json.Unmarshal(value, &batch); err == nil {
		return batch, nil
	}

	var single ArtistRecord
	if err := json.Unmarshal(value, &single); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "malformed artist message: %v", err)
	}
	return []ArtistRecord{single}, nil
}

// IsMalformed reports whether err marks a permanently unprocessable message
// (as opposed to a transient storage/broker failure).
func IsMalformed(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusBadRequest
}
