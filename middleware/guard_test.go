package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learnstack/sessionkit"
	"github.com/learnstack/sessionkit/storage"
)

type fakeGateway struct {
	identity sessionkit.Identity
}

func (g *fakeGateway) SignIn(context.Context, string, string) (*sessionkit.AuthGrant, error) {
	return &sessionkit.AuthGrant{
		Identity: g.identity,
		Pair: sessionkit.CredentialPair{
			Credential:        "access",
			RefreshCredential: "refresh",
		},
	}, nil
}

func (g *fakeGateway) SignUp(context.Context, sessionkit.SignUpInput) (*sessionkit.AuthGrant, error) {
	return nil, sessionkit.ErrServer
}

func (g *fakeGateway) SignOut(context.Context, string) error { return nil }

func (g *fakeGateway) Refresh(context.Context, string) (*sessionkit.CredentialPair, error) {
	return nil, sessionkit.ErrUnauthorized
}

func (g *fakeGateway) CurrentUser(context.Context, string) (*sessionkit.Identity, error) {
	identity := g.identity
	return &identity, nil
}

func (g *fakeGateway) UpdateProfile(context.Context, string, sessionkit.ProfileUpdate) (*sessionkit.Profile, error) {
	return nil, sessionkit.ErrServer
}

func (g *fakeGateway) UpdatePreferences(context.Context, string, sessionkit.PreferencesUpdate) (*sessionkit.Preferences, error) {
	return nil, sessionkit.ErrServer
}

func (g *fakeGateway) DeleteAccount(context.Context, string) error { return nil }

func newController(t *testing.T, identity sessionkit.Identity) *sessionkit.Controller {
	t.Helper()

	controller, err := sessionkit.New().
		WithGateway(&fakeGateway{identity: identity}).
		WithStorage(storage.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = controller.Close() })
	return controller
}

func completeIdentity() sessionkit.Identity {
	return sessionkit.Identity{
		ID:    "u-1",
		Email: "alice@example.com",
		Profile: sessionkit.Profile{
			BackgroundLevel:     "beginner",
			TechnicalBackground: "self-taught",
			LearningGoals:       []string{"learn go"},
		},
	}
}

func serve(t *testing.T, wrap func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	handler := wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity == nil {
			t.Error("identity missing from request context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return recorder
}

func TestGuardWhileRestoring(t *testing.T) {
	controller := newController(t, completeIdentity())

	handler := Guard(controller)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached before session settled")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", recorder.Code)
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestGuardUnauthenticated(t *testing.T) {
	controller := newController(t, completeIdentity())
	if err := controller.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	handler := Guard(controller)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached without authentication")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestGuardAuthenticated(t *testing.T) {
	controller := newController(t, completeIdentity())
	ctx := context.Background()
	if err := controller.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := controller.SignIn(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	recorder := serve(t, Guard(controller))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
}

func TestRequireProfileIncomplete(t *testing.T) {
	identity := completeIdentity()
	identity.Profile.LearningGoals = nil

	controller := newController(t, identity)
	ctx := context.Background()
	if err := controller.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := controller.SignIn(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	handler := RequireProfile(controller)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached with incomplete profile")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", recorder.Code)
	}

	recorder = serve(t, Guard(controller))
	if recorder.Code != http.StatusOK {
		t.Fatalf("plain guard status = %d, want 200", recorder.Code)
	}
}
