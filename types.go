package sessionkit

import (
	"context"
	"io"

	internalaudit "github.com/learnstack/sessionkit/internal/audit"
)

// Profile carries the learner background information attached to an account.
//
// Profile instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Profile struct {
	BackgroundLevel     string   `json:"background_level,omitempty"`
	TechnicalBackground string   `json:"technical_background,omitempty"`
	ExperienceYears     int      `json:"experience_years,omitempty"`
	LearningGoals       []string `json:"learning_goals,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	PreferredLanguage   string   `json:"preferred_language,omitempty"`
}

// Completed reports whether the profile is complete enough to unlock
// personalized content: background level, at least one learning goal, and a
// technical background must all be present.
func (p Profile) Completed() bool {
	return p.BackgroundLevel != "" &&
		len(p.LearningGoals) > 0 &&
		p.TechnicalBackground != ""
}

// Preferences carries per-account presentation and feature toggles.
//
// Preferences instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Preferences struct {
	Language               string `json:"language,omitempty"`
	ContentPersonalization bool   `json:"content_personalization"`
	ChatbotEnabled         bool   `json:"chatbot_enabled"`
	NotificationsEnabled   bool   `json:"notifications_enabled"`
	Theme                  string `json:"theme,omitempty"`
	AutoTranslate          bool   `json:"auto_translate"`
}

// Identity is the in-memory representation of the authenticated principal.
// It is owned by the controller, rebuilt from gateway responses, and never
// persisted; restarts re-derive it from the backend via the credential.
type Identity struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Profile     Profile     `json:"profile"`
	Preferences Preferences `json:"preferences"`
}

func (id *Identity) clone() *Identity {
	if id == nil {
		return nil
	}
	out := *id
	out.Profile.LearningGoals = append([]string(nil), id.Profile.LearningGoals...)
	out.Profile.Interests = append([]string(nil), id.Profile.Interests...)
	return &out
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
//
// ProfileUpdate instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProfileUpdate struct {
	BackgroundLevel     *string   `json:"background_level,omitempty"`
	TechnicalBackground *string   `json:"technical_background,omitempty"`
	ExperienceYears     *int      `json:"experience_years,omitempty"`
	LearningGoals       *[]string `json:"learning_goals,omitempty"`
	Interests           *[]string `json:"interests,omitempty"`
	PreferredLanguage   *string   `json:"preferred_language,omitempty"`
}

// PreferencesUpdate is a partial preferences change; nil fields are left untouched.
//
// PreferencesUpdate instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PreferencesUpdate struct {
	Language               *string `json:"language,omitempty"`
	ContentPersonalization *bool   `json:"content_personalization,omitempty"`
	ChatbotEnabled         *bool   `json:"chatbot_enabled,omitempty"`
	NotificationsEnabled   *bool   `json:"notifications_enabled,omitempty"`
	Theme                  *string `json:"theme,omitempty"`
	AutoTranslate          *bool   `json:"auto_translate,omitempty"`
}

// SignUpInput is the input for [Controller.SignUp]. Profile is optional; the
// backend creates default preferences either way.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Profile  *Profile
}

// CredentialPair is the issued credential plus its refresh companion. Exactly
// one pair is live at a time; issuing a new pair invalidates the previous one
// from the client's perspective.
type CredentialPair struct {
	Credential        string
	RefreshCredential string
}

// Empty describes the empty operation and its observable behavior.
//
// Empty may return an error when input validation, dependency calls, or security checks fail.
// Empty does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p CredentialPair) Empty() bool {
	return p.Credential == "" && p.RefreshCredential == ""
}

// AuthGrant is returned by gateway sign-in and sign-up: the authenticated
// identity together with the freshly issued credential pair.
type AuthGrant struct {
	Identity Identity
	Pair     CredentialPair
}

// IdentityGateway is the interface the controller consumes to reach the
// identity backend. Every operation is a single attempt; retry policy beyond
// the controller's one refresh-and-retry is deliberately absent. Failures are
// reported through the tagged sentinels in errors.go (ErrInvalidCredentials,
// ErrUnauthorized, ErrNetwork, ErrServer).
type IdentityGateway interface {
	SignIn(ctx context.Context, email, password string) (*AuthGrant, error)
	SignUp(ctx context.Context, input SignUpInput) (*AuthGrant, error)
	// SignOut is best-effort; the controller clears local state regardless
	// of the outcome.
	SignOut(ctx context.Context, credential string) error
	Refresh(ctx context.Context, refreshCredential string) (*CredentialPair, error)
	CurrentUser(ctx context.Context, credential string) (*Identity, error)
	UpdateProfile(ctx context.Context, credential string, update ProfileUpdate) (*Profile, error)
	UpdatePreferences(ctx context.Context, credential string, update PreferencesUpdate) (*Preferences, error)
	DeleteAccount(ctx context.Context, credential string) error
}

// AuditEvent is a structured audit record emitted by the controller.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the controller's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink]. Events that arrive
// while the buffer is full are dropped rather than blocking the dispatcher.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
