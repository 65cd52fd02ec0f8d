package middleware

import (
	"context"
	"net/http"

	"github.com/learnstack/sessionkit"
)

type identityContextKey struct{}

func IdentityFromContext(ctx context.Context) (*sessionkit.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*sessionkit.Identity)
	return identity, ok
}

func Guard(controller *sessionkit.Controller) func(http.Handler) http.Handler {
	return guard(controller, false)
}

func RequireProfile(controller *sessionkit.Controller) func(http.Handler) http.Handler {
	return guard(controller, true)
}

func guard(controller *sessionkit.Controller, requireProfile bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if controller == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			state := controller.CurrentState()

			switch sessionkit.EvaluateGate(state, requireProfile) {
			case sessionkit.ShowLoadingIndicator:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session restoring", http.StatusServiceUnavailable)
				return
			case sessionkit.ShowSignInPrompt:
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			case sessionkit.ShowProfileCompletionPrompt:
				http.Error(w, "profile incomplete", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, state.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
