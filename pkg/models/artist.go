package models

// Provenance tracks whether an artist row was created as a placeholder for a
// dangling listen reference or from an authoritative artist-stream event. The
// state is an explicit column rather than something inferred from the sentinel
// name pattern.
type Provenance string

const (
	ProvenancePlaceholder   Provenance = "placeholder"
	ProvenanceAuthoritative Provenance = "authoritative"
)

// Artist is a materialized artist row. RefAA is the natural key (the id
// assigned by the upstream artist source).
type Artist struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Year       *int       `db:"year" json:"year"`
	RefAA      int64      `db:"ref_aa" json:"ref_aa"`
	Provenance Provenance `db:"provenance" json:"provenance"`
}

// IsPlaceholder reports whether the row still awaits its authoritative event.
func (a *Artist) IsPlaceholder() bool {
	return a.Provenance == ProvenancePlaceholder
}

// Album belongs to exactly one artist; (name, artist_id) is the natural key.
type Album struct {
	ID        int64    `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	Reviews   int      `db:"reviews" json:"reviews"`
	AvgRating *float64 `db:"avg_rating" json:"avg_rating"`
	Ratings   int      `db:"ratings" json:"ratings"`
	ArtistID  int64    `db:"artist_id" json:"artist_id"`
}
