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
	"github.com/Ramsey-B/aster/pkg/resolver"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// UserProcessor materializes user-stream messages: the user row, friendship
// edges, and listen edges (creating placeholder artists for listens that
// arrive before their artist). Each message is one transaction; a failure
// rolls everything back and leaves the offset uncommitted.
type UserProcessor struct {
	db       database.DB
	resolver *resolver.Resolver
	writer   *associations.Writer
	validate *validator.Validate
	events   EventPublisher
	logger   ectologger.Logger
}

// NewUserProcessor creates a new user stream processor
func NewUserProcessor(db database.DB, res *resolver.Resolver, writer *associations.Writer, events EventPublisher, logger ectologger.Logger) *UserProcessor {
	return &UserProcessor{
		db:       db,
		resolver: res,
		writer:   writer,
		validate: validator.New(),
		events:   events,
		logger:   logger,
	}
}

// Handle processes one user-stream message.
func (p *UserProcessor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.UserProcessor.Handle")
	defer span.End()

	envelopes, err := models.DecodeUserBatch(msg.Value)
	if err != nil {
		return err
	}
	for i := range envelopes {
		if err := p.validate.Struct(&envelopes[i]); err != nil {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid user payload: %v", err)
		}
	}

	txCtx, tx, err := database.GetTx(ctx, p.logger, p.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var events []*kafka.EntityEvent
	for i := range envelopes {
		evts, err := p.processEnvelope(txCtx, &envelopes[i])
		if err != nil {
			return err
		}
		events = append(events, evts...)
	}

	if err := tx.Commit(txCtx); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to commit user batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit user batch")
	}

	p.publish(ctx, events)
	return nil
}

func (p *UserProcessor) processEnvelope(ctx context.Context, env *models.UserEnvelope) ([]*kafka.EntityEvent, error) {
	var events []*kafka.EntityEvent

	user, created, err := p.resolver.ResolveUser(ctx, env.User.Email, env.User.Attributes())
	if err != nil {
		return nil, err
	}
	if created {
		metrics.RecordEntity("user", "created")
		events = append(events, &kafka.EntityEvent{
			EventType:  "user.created",
			EntityID:   user.ID,
			EntityType: "user",
			NaturalKey: user.Email,
		})
	}

	evts, err := p.linkListens(ctx, user.ID, env.User.ArtistIDs)
	if err != nil {
		return nil, err
	}
	events = append(events, evts...)

	for i := range env.Friends {
		friend, created, err := p.resolver.ResolveUser(ctx, env.Friends[i].Email, env.Friends[i].Attributes())
		if err != nil {
			return nil, err
		}
		if created {
			metrics.RecordEntity("user", "created")
			events = append(events, &kafka.EntityEvent{
				EventType:  "user.created",
				EntityID:   friend.ID,
				EntityType: "user",
				NaturalKey: friend.Email,
			})
		}

		if err := p.writer.LinkFriendship(ctx, user.ID, friend.ID); err != nil {
			return nil, err
		}
		metrics.RecordEdge("friendship")

		evts, err := p.linkListens(ctx, friend.ID, env.Friends[i].ArtistIDs)
		if err != nil {
			return nil, err
		}
		events = append(events, evts...)
	}

	return events, nil
}

func (p *UserProcessor) linkListens(ctx context.Context, userID int64, artistRefs []int64) ([]*kafka.EntityEvent, error) {
	var events []*kafka.EntityEvent

	for _, refAA := range artistRefs {
		artist, created, err := p.resolver.EnsureArtistForListen(ctx, refAA)
		if err != nil {
			return nil, err
		}
		if created {
			metrics.RecordEntity("artist", "placeholder")
			events = append(events, &kafka.EntityEvent{
				EventType:  "artist.placeholder",
				EntityID:   artist.ID,
				EntityType: "artist",
				NaturalKey: artist.Name,
			})
		}

		if err := p.writer.LinkListen(ctx, userID, artist.ID); err != nil {
			return nil, err
		}
		metrics.RecordEdge("listen")
	}

	return events, nil
}

func (p *UserProcessor) publish(ctx context.Context, events []*kafka.EntityEvent) {
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
