package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/crisis-globe/internal/models"
	"github.com/mr1hm/crisis-globe/internal/repository"
)

type snapshotEvent struct {
	Generation uint64    `json:"generation"`
	Source     string    `json:"source"`
	Count      int       `json:"count"`
	LoadedAt   time.Time `json:"loaded_at"`
}

func newSnapshotEvent(snap *models.Snapshot) snapshotEvent {
	return snapshotEvent{
		Generation: snap.Generation,
		Source:     snap.Source,
		Count:      len(snap.Crises),
		LoadedAt:   snap.LoadedAt,
	}
}

// stream pushes a server-sent "snapshot" event for the current snapshot and
// then for every newly applied one, until the client goes away.
func (h *Handler) stream(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming unavailable"})
		return
	}

	id, ch := h.snapshots.Subscribe()
	defer h.snapshots.Unsubscribe(id)

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	if snap, err := h.repo.LatestSnapshot(ctx); err == nil {
		c.SSEvent("snapshot", newSnapshotEvent(snap))
		c.Writer.Flush()
	} else if !errors.Is(err, repository.ErrNotFound) {
		c.SSEvent("error", gin.H{"error": "failed to read snapshot"})
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", newSnapshotEvent(snap))
			return true
		}
	})
}
