package sessionkit

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the session controller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the session controller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetwork is an exported constant or variable used by the session controller.
	ErrNetwork = errors.New("network error")
	// ErrServer is an exported constant or variable used by the session controller.
	ErrServer = errors.New("server error")
	// ErrSessionBusy is an exported constant or variable used by the session controller.
	ErrSessionBusy = errors.New("session operation already in flight")
	// ErrNotAuthenticated is an exported constant or variable used by the session controller.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotInitialized is an exported constant or variable used by the session controller.
	ErrNotInitialized = errors.New("controller not initialized")
	// ErrAlreadyInitialized is an exported constant or variable used by the session controller.
	ErrAlreadyInitialized = errors.New("controller already initialized")
	// ErrControllerNotReady is an exported constant or variable used by the session controller.
	ErrControllerNotReady = errors.New("controller not ready")
	// ErrSessionCorrupt is an exported constant or variable used by the session controller.
	ErrSessionCorrupt = errors.New("persisted session corrupt")
)
