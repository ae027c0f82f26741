package associations

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// FriendshipRepository persists directed user->user edges.
type FriendshipRepository interface {
	Link(ctx context.Context, userID, friendUserID int64) error
}

// ListenRepository persists user->artist edges.
type ListenRepository interface {
	Link(ctx context.Context, userID, artistID int64) error
}

// DescriptorRepository persists descriptor rows per category table.
type DescriptorRepository interface {
	GetByDescription(ctx context.Context, category models.DescriptorType, description string) (*models.Descriptor, error)
	Insert(ctx context.Context, category models.DescriptorType, description string) (int64, error)
}

// AssociationRepository persists artist->descriptor edges.
type AssociationRepository interface {
	Link(ctx context.Context, artistID, descriptorID int64, category models.DescriptorType) error
}

// Writer records relationship edges between resolved entities. All writes are
// idempotent; replaying a message produces no duplicate edges.
type Writer struct {
	friendships FriendshipRepository
	listens     ListenRepository
	descriptors DescriptorRepository
	asocs       AssociationRepository
	logger      ectologger.Logger
}

// NewWriter creates a new association writer
func NewWriter(friendships FriendshipRepository, listens ListenRepository, descriptors DescriptorRepository, asocs AssociationRepository, logger ectologger.Logger) *Writer {
	return &Writer{
		friendships: friendships,
		listens:     listens,
		descriptors: descriptors,
		asocs:       asocs,
		logger:      logger,
	}
}

// LinkFriendship records the directed edge user->friend. The reciprocal edge
// is only written when the friend's own payload names this user.
func (w *Writer) LinkFriendship(ctx context.Context, userID, friendUserID int64) error {
	ctx, span := tracing.StartSpan(ctx, "associations.LinkFriendship")
	defer span.End()

	return w.friendships.Link(ctx, userID, friendUserID)
}

// LinkListen records a user->artist edge.
func (w *Writer) LinkListen(ctx context.Context, userID, artistID int64) error {
	ctx, span := tracing.StartSpan(ctx, "associations.LinkListen")
	defer span.End()

	return w.listens.Link(ctx, userID, artistID)
}

// LinkDescriptors finds or creates a descriptor row for each description in
// the category's table and links the artist to it. Duplicate descriptions in
// the payload collapse to one edge; matching is case sensitive.
func (w *Writer) LinkDescriptors(ctx context.Context, artistID int64, category models.DescriptorType, descriptions []string) error {
	ctx, span := tracing.StartSpan(ctx, "associations.LinkDescriptors")
	defer span.End()

	for _, description := range normalizers.DistinctStrings(descriptions) {
		id, err := w.ensureDescriptor(ctx, category, description)
		if err != nil {
			return err
		}
		if err := w.asocs.Link(ctx, artistID, id, category); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) ensureDescriptor(ctx context.Context, category models.DescriptorType, description string) (int64, error) {
	existing, err := w.descriptors.GetByDescription(ctx, category, description)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := w.descriptors.Insert(ctx, category, description)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		// another writer created the row between our select and insert
		existing, err = w.descriptors.GetByDescription(ctx, category, description)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, httperror.NewHTTPErrorf(http.StatusInternalServerError, "descriptor %q vanished after insert conflict", description)
		}
		return existing.ID, nil
	}
	return id, nil
}
