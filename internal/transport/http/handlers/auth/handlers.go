package authhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/jellydator/validation"

	"aurahr/internal/app/sessions"
	"aurahr/internal/domain/auth"
	"aurahr/internal/platform/metrics"
	"aurahr/internal/transport/http/api"
	"aurahr/internal/transport/http/middleware"
	"aurahr/internal/transport/http/shared"
)

const eventsHeartbeat = 25 * time.Second

type Handler struct {
	Metrics *metrics.Collector
	// RateLimit is the per-minute budget shared by login and signup.
	// Zero disables throttling.
	RateLimit int
}

func NewHandler(collector *metrics.Collector, rateLimit int) *Handler {
	return &Handler{Metrics: collector, RateLimit: rateLimit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.RateLimit > 0 {
				r.Use(middleware.AuthRateLimit(h.RateLimit, time.Minute))
			}
			r.Post("/login", h.handleLogin)
			r.Post("/signup", h.handleSignup)
		})
		r.Post("/logout", h.handleLogout)
		r.Get("/session", h.handleSession)
		r.Get("/session/events", h.handleEvents)
		r.Get("/capabilities/{capability}", h.handleCapability)
	})
	r.With(middleware.RequireCapability("", h.Metrics)).Get("/navigation", h.handleNavigation)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			shared.Email,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		),
	)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *signupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			shared.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			shared.Email,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		),
	)
}

type sessionView struct {
	User          *auth.Identity     `json:"user"`
	Resolving     bool               `json:"resolving"`
	Authenticated bool               `json:"authenticated"`
	Menu          []auth.Destination `json:"menu"`
}

func newSessionView(state auth.State) sessionView {
	return sessionView{
		User:          state.Identity,
		Resolving:     state.Resolving,
		Authenticated: state.Authenticated(),
		Menu:          auth.Menu(state),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		h.Metrics.RecordAuth("login", "validation_error")
		return
	}

	result, err := client.Store.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	h.Metrics.RecordAuth("login", "success")
	api.Success(w, map[string]any{
		"user":     result.Identity,
		"redirect": intentPath(result.Next),
	}, reqID)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	var payload signupRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		h.Metrics.RecordAuth("signup", "validation_error")
		return
	}

	result, err := client.Store.Signup(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		h.fail(w, r, "signup", err)
		return
	}
	h.Metrics.RecordAuth("signup", "success")
	api.Created(w, map[string]string{"redirect": intentPath(result.Next)}, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	result := client.Store.Logout(r.Context())
	h.Metrics.RecordAuth("logout", "success")
	api.Success(w, map[string]string{"redirect": intentPath(result.Next)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	api.Success(w, newSessionView(client.Store.Snapshot()), middleware.GetRequestID(r.Context()))
}

// handleEvents streams every session state change as a server-sent event
// until the client goes away.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("session events unsupported", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		return
	}

	states, unsubscribe := client.Store.Subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(eventsHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case state, ok := <-states:
			if !ok {
				return
			}
			data, err := json.Marshal(newSessionView(state))
			if err != nil {
				slog.Warn("encode session event failed", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *Handler) handleCapability(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	capability := auth.Capability(chi.URLParam(r, "capability"))
	api.Success(w, map[string]any{
		"capability": capability,
		"granted":    client.Store.HasCapability(capability),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleNavigation(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]any{"menu": auth.Menu(client.Store.Snapshot())}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.Metrics.RecordAuth(op, "invalid_credentials")
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), reqID)
	case errors.Is(err, auth.ErrAccountExists):
		h.Metrics.RecordAuth(op, "account_exists")
		api.Fail(w, http.StatusConflict, "account_exists", err.Error(), reqID)
	case errors.Is(err, auth.ErrTimeout):
		h.Metrics.RecordAuth(op, "timeout")
		api.Fail(w, http.StatusGatewayTimeout, "timeout", err.Error(), reqID)
	default:
		h.Metrics.RecordAuth(op, "error")
		slog.Error("session operation failed", "op", op, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "session_error", "something went wrong", reqID)
	}
}

func clientFrom(w http.ResponseWriter, r *http.Request) (*sessions.Client, bool) {
	client, ok := middleware.GetClient(r.Context())
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "session_error", "client session unavailable", middleware.GetRequestID(r.Context()))
	}
	return client, ok
}

func intentPath(intent auth.Intent) string {
	switch intent {
	case auth.IntentLogin:
		return middleware.LoginPath
	case auth.IntentSignup:
		return "/signup"
	default:
		return middleware.HomePath
	}
}
