package sessionkit

// Phase identifies which variant of the session state machine is active.
// Exactly one phase is active at any time; transitions are driven by
// Controller methods.
type Phase uint8

const (
	// PhaseUninitialized is an exported constant or variable used by the session controller.
	PhaseUninitialized Phase = iota
	// PhaseRestoring is an exported constant or variable used by the session controller.
	PhaseRestoring
	// PhaseUnauthenticated is an exported constant or variable used by the session controller.
	PhaseUnauthenticated
	// PhaseAuthenticating is an exported constant or variable used by the session controller.
	PhaseAuthenticating
	// PhaseAuthenticated is an exported constant or variable used by the session controller.
	PhaseAuthenticated
	// PhaseRefreshing is an exported constant or variable used by the session controller.
	PhaseRefreshing
	// PhaseError is an exported constant or variable used by the session controller.
	PhaseError
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRestoring:
		return "restoring"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionState is a snapshot of the controller's current state. Identity is
// non-nil only for PhaseAuthenticated and PhaseRefreshing; Message is set
// only for PhaseError. Snapshots are copies and safe to retain.
type SessionState struct {
	Phase    Phase
	Identity *Identity
	Message  string
}

// Authenticated reports whether the snapshot carries a live identity,
// including during a background refresh.
func (s SessionState) Authenticated() bool {
	return (s.Phase == PhaseAuthenticated || s.Phase == PhaseRefreshing) && s.Identity != nil
}

// Loading reports whether the snapshot is in a transient phase with no
// settled answer about the principal yet.
func (s SessionState) Loading() bool {
	return s.Phase == PhaseUninitialized || s.Phase == PhaseRestoring || s.Phase == PhaseAuthenticating
}
