package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"aurahr/internal/app/sessions"
	"aurahr/internal/domain/auth"
	"aurahr/internal/requestctx"
)

const ClientCookie = "aurahr_client"

type ctxKey string

const ctxKeyClient ctxKey = "client"

type ClientSource interface {
	Get(ctx context.Context, clientID string) *sessions.Client
}

type ClientSessionConfig struct {
	Secret   string
	TTL      time.Duration
	Secure   bool
	Registry ClientSource
}

// ClientSession binds every request to a client session. A missing,
// expired or forged cookie starts a new client, and the request is marked
// so per-client limits fall back to the caller's address.
func ClientSession(cfg ClientSessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := ""
			if cookie, err := r.Cookie(ClientCookie); err == nil {
				if claims, err := auth.ParseClientToken(cfg.Secret, cookie.Value); err == nil {
					clientID = claims.ClientID
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				token, err := auth.GenerateClientToken(cfg.Secret, clientID, cfg.TTL)
				if err != nil {
					slog.Error("issue client token failed", "err", err, "requestId", GetRequestID(r.Context()))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				ctx = requestctx.MarkNewClient(ctx)
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			client := cfg.Registry.Get(ctx, clientID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKeyClient, client)))
		})
	}
}

func GetClient(ctx context.Context) (*sessions.Client, bool) {
	client, ok := ctx.Value(ctxKeyClient).(*sessions.Client)
	return client, ok && client != nil
}

// WithClient is used by handlers mounted without the session middleware.
func WithClient(ctx context.Context, client *sessions.Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, client)
}
