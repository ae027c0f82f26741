package processor

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/aster/pkg/associations"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/resolver"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// AlbumRepository is the album persistence surface the processor needs.
type AlbumRepository interface {
	GetByNameAndArtist(ctx context.Context, name string, artistID int64) (*models.Album, error)
	Insert(ctx context.Context, artistID int64, rec models.AlbumRecord) (int64, error)
}

// ArtistProcessor materializes artist-stream messages: the authoritative
// artist row (upgrading any placeholder in place), its albums, and its
// descriptor associations. Each message is one transaction.
type ArtistProcessor struct {
	db       database.DB
	resolver *resolver.Resolver
	writer   *associations.Writer
	albums   AlbumRepository
	validate *validator.Validate
	events   EventPublisher
	logger   ectologger.Logger
}

// NewArtistProcessor creates a new artist stream processor
func NewArtistProcessor(db database.DB, res *resolver.Resolver, writer *associations.Writer, albums AlbumRepository, events EventPublisher, logger ectologger.Logger) *ArtistProcessor {
	return &ArtistProcessor{
		db:       db,
		resolver: res,
		writer:   writer,
		albums:   albums,
		validate: validator.New(),
		events:   events,
		logger:   logger,
	}
}

// Handle processes one artist-stream message.
func (p *ArtistProcessor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.ArtistProcessor.Handle")
	defer span.End()

	records, err := models.DecodeArtistBatch(msg.Value)
	if err != nil {
		return err
	}
	for i := range records {
		if err := p.validate.Struct(&records[i]); err != nil {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid artist payload: %v", err)
		}
	}

	txCtx, tx, err := database.GetTx(ctx, p.logger, p.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var events []*kafka.EntityEvent
	for i := range records {
		evts, err := p.processRecord(txCtx, &records[i])
		if err != nil {
			return err
		}
		events = append(events, evts...)
	}

	if err := tx.Commit(txCtx); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to commit artist batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit artist batch")
	}

	p.publish(ctx, events)
	return nil
}

func (p *ArtistProcessor) processRecord(ctx context.Context, rec *models.ArtistRecord) ([]*kafka.EntityEvent, error) {
	var events []*kafka.EntityEvent

	year := normalizers.ExtractYear(rec.Year)
	artist, upgraded, err := p.resolver.UpsertArtist(ctx, rec.RefAA, rec.Name, year)
	if err != nil {
		return nil, err
	}
	if upgraded {
		metrics.RecordEntity("artist", "upgraded")
		events = append(events, &kafka.EntityEvent{
			EventType:  "artist.upgraded",
			EntityID:   artist.ID,
			EntityType: "artist",
			NaturalKey: artist.Name,
		})
	} else {
		metrics.RecordEntity("artist", "upserted")
	}

	for i := range rec.Albums {
		if err := p.ensureAlbum(ctx, artist.ID, rec.Albums[i]); err != nil {
			return nil, err
		}
	}

	if err := p.writer.LinkDescriptors(ctx, artist.ID, models.DescriptorTypeDescriptor, rec.Descriptors); err != nil {
		return nil, err
	}
	if err := p.writer.LinkDescriptors(ctx, artist.ID, models.DescriptorTypePrimaryGenre, rec.PrimaryGenres); err != nil {
		return nil, err
	}
	if err := p.writer.LinkDescriptors(ctx, artist.ID, models.DescriptorTypeSecondaryGenre, rec.SecondaryGenres); err != nil {
		return nil, err
	}

	return events, nil
}

func (p *ArtistProcessor) ensureAlbum(ctx context.Context, artistID int64, rec models.AlbumRecord) error {
	existing, err := p.albums.GetByNameAndArtist(ctx, rec.ReleaseName, artistID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	// a (0, nil) result means a concurrent insert won; the row exists either way
	if _, err := p.albums.Insert(ctx, artistID, rec); err != nil {
		return err
	}
	metrics.RecordEntity("album", "created")
	return nil
}

func (p *ArtistProcessor) publish(ctx context.Context, events []*kafka.EntityEvent) {
	if p.events == nil || len(events) == 0 {
		return
	}

	now := time.Now().UTC()
	for _, event := range events {
		event.Timestamp = now
	}

	if err := p.events.PublishEntityEvents(ctx, events); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Failed to publish entity events")
	}
}
