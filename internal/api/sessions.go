package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/crisis-globe/internal/globe"
	"github.com/mr1hm/crisis-globe/internal/repository"
)

type createSessionRequest struct {
	Viewport *globe.Viewport `json:"viewport"`
}

type pointerRequest struct {
	Kind globe.PointerKind `json:"kind" binding:"required"`
	X    *float64          `json:"x"`
	Y    *float64          `json:"y"`
}

type selectRequest struct {
	CrisisID string `json:"crisis_id" binding:"required"`
}

func (h *Handler) session(c *gin.Context) (*globe.Session, bool) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	// an empty body is fine
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session request"})
			return
		}
	}

	opts := h.opts.Globe
	if req.Viewport != nil {
		if req.Viewport.Width <= 0 || req.Viewport.Height <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "viewport must have positive width and height"})
			return
		}
		opts.Controller.Viewport = *req.Viewport
	}

	s, err := h.sessions.Create(opts, nil)
	if errors.Is(err, globe.ErrRegistryClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server shutting down"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	// Read only after the session is subscribed, so a snapshot applied in
	// between still reaches it through the broadcaster.
	snap, err := h.repo.LatestSnapshot(c.Request.Context())
	switch {
	case err == nil:
		s.ApplySnapshot(snap)
	case !errors.Is(err, repository.ErrNotFound):
		h.sessions.Close(s.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID(),
		"frame":      s.Frame(),
	})
}

func (h *Handler) deleteSession(c *gin.Context) {
	if !h.sessions.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) frame(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Frame())
}

func (h *Handler) pointer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pointer event"})
		return
	}

	res, err := s.Pointer(req.Kind, globe.PointerEvent{X: req.X, Y: req.Y})
	if errors.Is(err, globe.ErrUnknownPointerKind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pointer event failed"})
		return
	}

	h.opts.Metrics.Pointer(string(req.Kind), res.Selected)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) setViewport(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var v globe.Viewport
	if err := c.ShouldBindJSON(&v); err != nil || v.Width <= 0 || v.Height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "viewport must have positive width and height"})
		return
	}
	s.SetViewport(v)
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	crisis, selected := s.Selected()
	if !selected {
		c.JSON(http.StatusOK, gin.H{"selected_id": nil, "detail": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_id": crisis.ID, "detail": h.detail(&crisis)})
}

// selectCrisis is the list-panel path into the shared selection.
func (h *Handler) selectCrisis(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crisis_id is required"})
		return
	}

	if !s.Select(req.CrisisID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "crisis not in session"})
		return
	}

	crisis, _ := s.Selected()
	c.JSON(http.StatusOK, gin.H{"selected_id": crisis.ID, "detail": h.detail(&crisis)})
}

func (h *Handler) deselect(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Deselect()
	c.Status(http.StatusNoContent)
}
