package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learnstack/sessionkit"
)

func newTestGateway(t *testing.T, handler http.Handler) (*HTTPGateway, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := NewHTTP(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTP failed: %v", err)
	}
	return gw, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestSignInSuccess(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Client-Instance") == "" {
			t.Error("missing X-Client-Instance header")
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["email"] != "alice@example.com" {
			t.Errorf("email = %q", body["email"])
		}

		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]any{
				"id":    "u-1",
				"email": "alice@example.com",
				"name":  "Alice",
			},
			"token":         "access-token",
			"refresh_token": "refresh-token",
		})
	}))

	grant, err := gw.SignIn(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if grant.Identity.ID != "u-1" {
		t.Errorf("identity ID = %q, want u-1", grant.Identity.ID)
	}
	if grant.Pair.Credential != "access-token" || grant.Pair.RefreshCredential != "refresh-token" {
		t.Errorf("unexpected pair: %+v", grant.Pair)
	}
}

func TestSignInRejected(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		message string
	}{
		{"wrong password", http.StatusUnauthorized, "Invalid email or password"},
		{"validation failure", http.StatusBadRequest, "Password too short"},
		{"deactivated account", http.StatusForbidden, "Account is deactivated"},
		{"unprocessable body", http.StatusUnprocessableEntity, "Invalid email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tc.status, map[string]any{
					"success": false,
					"message": tc.message,
				})
			}))

			_, err := gw.SignIn(context.Background(), "alice@example.com", "wrong")
			if !errors.Is(err, sessionkit.ErrInvalidCredentials) {
				t.Fatalf("status %d: err = %v, want ErrInvalidCredentials", tc.status, err)
			}
		})
	}
}

func TestSignUpValidationFailure(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Email already registered",
		})
	}))

	_, err := gw.SignUp(context.Background(), sessionkit.SignUpInput{
		Email:    "alice@example.com",
		Password: "Secret123",
		Name:     "Alice",
	})
	if !errors.Is(err, sessionkit.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestCurrentUserUnauthorized(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Token expired",
		})
	}))

	_, err := gw.CurrentUser(context.Background(), "stale-token")
	if !errors.Is(err, sessionkit.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCurrentUserSendsBearer(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-token" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]any{
				"id":    "u-1",
				"email": "alice@example.com",
			},
		})
	}))

	identity, err := gw.CurrentUser(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Errorf("email = %q", identity.Email)
	}
}

func TestRefreshKeepsRefreshCredentialWhenNotRotated(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["refresh_token"] != "refresh-old" {
			t.Errorf("refresh_token = %q", body["refresh_token"])
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "access-new",
		})
	}))

	pair, err := gw.Refresh(context.Background(), "refresh-old")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if pair.Credential != "access-new" {
		t.Errorf("credential = %q", pair.Credential)
	}
	if pair.RefreshCredential != "refresh-old" {
		t.Errorf("refresh credential = %q, want the original", pair.RefreshCredential)
	}
}

func TestServerErrorTagged(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := gw.CurrentUser(context.Background(), "token")
	if !errors.Is(err, sessionkit.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestFailureEnvelopeOnSuccessStatus(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": false,
			"message": "unexpected condition",
		})
	}))

	_, err := gw.CurrentUser(context.Background(), "token")
	if !errors.Is(err, sessionkit.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestNetworkErrorTagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gw, err := NewHTTP(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTP failed: %v", err)
	}
	server.Close()

	_, err = gw.CurrentUser(context.Background(), "token")
	if !errors.Is(err, sessionkit.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestNewHTTPRejectsBadBaseURL(t *testing.T) {
	cases := []string{"", "not a url", "ftp://example.com"}
	for _, raw := range cases {
		if _, err := NewHTTP(Config{BaseURL: raw}); err == nil {
			t.Errorf("NewHTTP(%q) succeeded, want error", raw)
		}
	}
}
