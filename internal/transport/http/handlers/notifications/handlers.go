package notificationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aurahr/internal/transport/http/api"
	"aurahr/internal/transport/http/middleware"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/count", h.handleCount)
	})
}

// handleList drains the toasts queued for the client. Each toast is
// returned once.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.GetClient(r.Context())
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "session_error", "client session unavailable", middleware.GetRequestID(r.Context()))
		return
	}

	items := client.Feed.Drain()
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.GetClient(r.Context())
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "session_error", "client session unavailable", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"pending": client.Feed.Len()}, middleware.GetRequestID(r.Context()))
}
