package models

// User is a materialized user row. Email is the natural key; RefAA carries the
// id assigned by the upstream user source so friendship references can be
// resolved before internal ids are known.
type User struct {
	ID        int64   `db:"id" json:"id"`
	FirstName *string `db:"first_name" json:"first_name"`
	LastName  *string `db:"last_name" json:"last_name"`
	Email     string  `db:"email" json:"email"`
	Gender    *string `db:"gender" json:"gender"`
	RefAA     *int64  `db:"ref_aa" json:"ref_aa"`
}

// UserAttributes are the mutable user fields. Resolution only backfills
// columns that are still null; existing non-null values are never overwritten.
type UserAttributes struct {
	FirstName *string
	LastName  *string
	Gender    *string
	RefAA     *int64
}

// HasValues reports whether any attribute is set.
func (a *UserAttributes) HasValues() bool {
	if a == nil {
		return false
	}
	return a.FirstName != nil || a.LastName != nil || a.Gender != nil || a.RefAA != nil
}

// Friendship is a directed user->user edge. A reciprocal edge is a separate
// row, never implied.
type Friendship struct {
	ID           int64 `db:"id" json:"id"`
	UserID       int64 `db:"user_id" json:"user_id"`
	FriendUserID int64 `db:"friend_user_id" json:"friend_user_id"`
}

// Listen is a user->artist edge recording that the user's source event
// referenced that artist.
type Listen struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	ArtistID int64 `db:"artist_id" json:"artist_id"`
}
