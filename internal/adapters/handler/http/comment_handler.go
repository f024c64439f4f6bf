package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

const streamHeartbeat = 25 * time.Second

type CommentHandler struct {
	service   ports.CommentService
	heartbeat time.Duration
}

func NewCommentHandler(service ports.CommentService) *CommentHandler {
	return &CommentHandler{
		service:   service,
		heartbeat: streamHeartbeat,
	}
}

type postCommentRequest struct {
	Name    string `json:"name" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}

	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	var req postCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.service.Post(r.Context(), ports.PostCommentInput{
		PollID:  chi.URLParam(r, "id"),
		Name:    req.Name,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// StreamComments replays the comment backlog and then pushes new comments as
// Server-Sent Events until the client goes away.
func (h *CommentHandler) StreamComments(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	comments, err := h.service.Watch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case c, ok := <-comments:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				slog.Error("failed to encode comment event", "comment_id", c.ID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: comment\ndata: %s\n\n", c.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
