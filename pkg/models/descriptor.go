package models

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// DescriptorType names one of the three descriptor categories. Each category
// is its own natural-key space backed by its own table: the same description
// text under two categories is two distinct rows.
type DescriptorType string

const (
	DescriptorTypeDescriptor     DescriptorType = "DESCRIPTOR"
	DescriptorTypePrimaryGenre   DescriptorType = "PRIMARY_GENRE"
	DescriptorTypeSecondaryGenre DescriptorType = "SECONDARY_GENRE"
)

// descriptorTables is the allowlist of category tables. Table names are never
// interpolated from message data directly.
var descriptorTables = map[DescriptorType]string{
	DescriptorTypeDescriptor:     "descriptors",
	DescriptorTypePrimaryGenre:   "primary_genres",
	DescriptorTypeSecondaryGenre: "secondary_genres",
}

// TableName returns the backing table for the category.
func (t DescriptorType) TableName() (string, error) {
	table, ok := descriptorTables[t]
	if !ok {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown descriptor type %q", string(t))
	}
	return table, nil
}

// Descriptor is a tag row within one category's namespace.
type Descriptor struct {
	ID          int64  `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
}

// DescriptorAssociation links an artist to a descriptor under one category.
// (artist_id, descriptor_id, descriptor_type) is the natural key.
type DescriptorAssociation struct {
	ID             int64          `db:"id" json:"id"`
	ArtistID       int64          `db:"artist_id" json:"artist_id"`
	DescriptorID   int64          `db:"descriptor_id" json:"descriptor_id"`
	DescriptorType DescriptorType `db:"descriptor_type" json:"descriptor_type"`
}
