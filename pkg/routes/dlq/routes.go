package dlq

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/redis"
)

// Routes exposes the dead letter stream for operator inspection. Quarantined
// messages carry their original payload, so a replay is a manual re-publish
// to the source topic after the underlying problem is fixed.
type Routes struct {
	queue *redis.DeadLetterQueue
}

// NewRoutes creates new DLQ routes
func NewRoutes(queue *redis.DeadLetterQueue) *Routes {
	return &Routes{queue: queue}
}

// RegisterRoutes registers DLQ endpoints
func (r *Routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/dlq", r.List)
	e.GET("/api/v1/dlq/count", r.Count)
	e.DELETE("/api/v1/dlq/:id", r.Delete)
}

// List returns the newest quarantined messages
func (r *Routes) List(ctx echo.Context) error {
	count := int64(100)
	if raw := ctx.QueryParam("count"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "count must be a positive integer")
		}
		count = parsed
	}

	entries, err := r.queue.List(ctx.Request().Context(), count)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{"entries": entries})
}

// Count returns the number of quarantined messages
func (r *Routes) Count(ctx echo.Context) error {
	count, err := r.queue.Count(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"count": count})
}

// Delete discards one quarantined message by stream id
func (r *Routes) Delete(ctx echo.Context) error {
	if err := r.queue.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return ctx.NoContent(http.StatusNoContent)
}
