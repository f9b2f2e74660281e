package middleware

import (
	"net/http"
	"time"

	"aurahr/internal/domain/auth"
	"aurahr/internal/platform/metrics"
	"aurahr/internal/transport/http/api"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// RequireCapability guards an API route. The empty capability only requires
// a signed-in identity.
func RequireCapability(required auth.Capability, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			client, ok := GetClient(r.Context())
			if !ok {
				api.Fail(w, http.StatusInternalServerError, "session_error", "client session unavailable", reqID)
				return
			}

			decision := client.Guard.Check(required)
			recordDecision(collector, decision)
			switch {
			case decision.Outcome == auth.OutcomeRender:
				next.ServeHTTP(w, r)
			case decision.Outcome == auth.OutcomeLoading:
				api.RetryLater(w, http.StatusServiceUnavailable, time.Second, "session_resolving", "session is still resolving", reqID)
			case decision.Redirect == auth.IntentLogin:
				api.FailWithDetails(w, http.StatusUnauthorized, "unauthorized", "authentication required",
					map[string]string{"redirect": LoginPath}, reqID)
			default:
				api.FailWithDetails(w, http.StatusForbidden, "forbidden", "insufficient permissions",
					map[string]string{"redirect": HomePath, "required": string(required)}, reqID)
			}
		})
	}
}

// GuardPage protects a page route. Redirects use 303 so the browser follows
// with a GET.
func GuardPage(required auth.Capability, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := GetClient(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			decision := client.Guard.Check(required)
			recordDecision(collector, decision)
			switch decision.Outcome {
			case auth.OutcomeRender:
				next.ServeHTTP(w, r)
			case auth.OutcomeLoading:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(loadingPage))
			default:
				http.Redirect(w, r, PageRedirect(decision.Redirect, r.URL.Path, client.Store.Snapshot()), http.StatusSeeOther)
			}
		})
	}
}

// PageRedirect resolves a redirect intent to a path. A denied home page
// falls through to the first destination the identity may open, so a
// redirect never points back at the page that produced it.
func PageRedirect(intent auth.Intent, current string, state auth.State) string {
	if intent == auth.IntentLogin {
		return LoginPath
	}
	if current != HomePath {
		return HomePath
	}
	for _, dest := range auth.Menu(state) {
		if dest.Path != HomePath {
			return dest.Path
		}
	}
	return LoginPath
}

func recordDecision(collector *metrics.Collector, decision auth.Decision) {
	collector.RecordGuard(string(decision.Outcome), string(decision.Redirect))
}

const loadingPage = `<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>AuraHR</title></head>
<body><p>Loading...</p></body></html>
`
