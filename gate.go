package sessionkit

// GateOutcome is the rendering decision for a protected route.
//
// GateOutcome instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GateOutcome uint8

const (
	// ShowLoadingIndicator is an exported constant or variable used by the session controller.
	ShowLoadingIndicator GateOutcome = iota
	// ShowSignInPrompt is an exported constant or variable used by the session controller.
	ShowSignInPrompt
	// ShowProfileCompletionPrompt is an exported constant or variable used by the session controller.
	ShowProfileCompletionPrompt
	// ShowProtectedContent is an exported constant or variable used by the session controller.
	ShowProtectedContent
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o GateOutcome) String() string {
	switch o {
	case ShowLoadingIndicator:
		return "loading"
	case ShowSignInPrompt:
		return "sign_in"
	case ShowProfileCompletionPrompt:
		return "complete_profile"
	case ShowProtectedContent:
		return "content"
	default:
		return "unknown"
	}
}

// EvaluateGate maps a session state snapshot to a gate outcome. Transient
// phases never flash the sign-in prompt; they report loading until the state
// machine settles. When requireProfile is set, an authenticated principal with
// an incomplete learner profile is steered to profile completion instead of
// the protected content.
func EvaluateGate(state SessionState, requireProfile bool) GateOutcome {
	if state.Loading() {
		return ShowLoadingIndicator
	}
	if !state.Authenticated() {
		return ShowSignInPrompt
	}
	if requireProfile && !state.Identity.Profile.Completed() {
		return ShowProfileCompletionPrompt
	}
	return ShowProtectedContent
}
