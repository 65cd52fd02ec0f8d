package sessionkit

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/learnstack/sessionkit/storage"
	"github.com/learnstack/sessionkit/token"
)

// Controller is the session lifecycle state machine. It owns the credential
// pair, the authenticated identity, and the persisted session record, and is
// the single writer for all of them.
//
// Controller instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Controller struct {
	config  Config
	codec   *token.Codec
	storage storage.Store
	gateway IdentityGateway
	clock   func() time.Time

	audit   *auditDispatcher
	metrics *Metrics

	// opMu serializes mutating operations. Contenders are rejected with
	// ErrSessionBusy rather than queued.
	opMu sync.Mutex

	stateMu    sync.RWMutex
	state      SessionState
	pair       CredentialPair
	memoryOnly bool

	subMu       sync.Mutex
	subscribers map[string]func(SessionState)

	closed atomic.Bool
}

// CurrentState describes the currentstate operation and its observable behavior.
//
// CurrentState may return an error when input validation, dependency calls, or security checks fail.
// CurrentState does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) CurrentState() SessionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	out := c.state
	out.Identity = c.state.Identity.clone()
	return out
}

// CurrentIdentity describes the currentidentity operation and its observable behavior.
//
// CurrentIdentity may return an error when input validation, dependency calls, or security checks fail.
// CurrentIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) CurrentIdentity() *Identity {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return c.state.Identity.clone()
}

// HasCompletedProfile reports whether the current identity carries a complete
// learner profile. It is false whenever no identity is present.
func (c *Controller) HasCompletedProfile() bool {
	identity := c.CurrentIdentity()
	return identity != nil && identity.Profile.Completed()
}

// MemoryOnly reports whether the controller has degraded to in-memory
// credentials after a storage failure. A memory-only session does not survive
// a restart.
func (c *Controller) MemoryOnly() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return c.memoryOnly
}

// Subscribe registers a callback invoked synchronously after every state
// transition, in registration-independent order, with a defensive snapshot.
// It returns an opaque id for [Controller.Unsubscribe].
func (c *Controller) Subscribe(fn func(SessionState)) string {
	if c == nil || fn == nil {
		return ""
	}

	id := uuid.NewString()

	c.subMu.Lock()
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return id
}

// Unsubscribe describes the unsubscribe operation and its observable behavior.
//
// Unsubscribe may return an error when input validation, dependency calls, or security checks fail.
// Unsubscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Unsubscribe(id string) {
	if c == nil || id == "" {
		return
	}

	c.subMu.Lock()
	delete(c.subscribers, id)
	c.subMu.Unlock()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return c.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close releases background resources. The controller must not be used after
// Close returns.
func (c *Controller) Close() error {
	if c == nil {
		return nil
	}
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.audit.Close()
	return nil
}

// Initialize restores a previously persisted session. It must be called
// exactly once, before any other mutating operation. The controller settles in
// PhaseAuthenticated or PhaseUnauthenticated; a corrupt record is cleared and
// reported via ErrSessionCorrupt, and an unreachable backend leaves the
// persisted record in place for the next start.
func (c *Controller) Initialize(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return ErrSessionBusy
	}
	defer c.opMu.Unlock()

	if c.CurrentState().Phase != PhaseUninitialized {
		return ErrAlreadyInitialized
	}

	c.setState(ctx, SessionState{Phase: PhaseRestoring})

	record, err := c.storage.Load(ctx)
	if err != nil {
		return c.settleFailedRestore(ctx, err)
	}
	if record.Empty() {
		c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
		c.metrics.Inc(MetricRestoreUnauthenticated)
		c.emitAudit(ctx, auditEventRestore, true, "", nil, nil)
		return nil
	}

	pair := CredentialPair{
		Credential:        record.Credential,
		RefreshCredential: record.RefreshCredential,
	}

	now := c.clock()
	credentialExpired := c.codec.IsExpired(pair.Credential, now)
	refreshExpired := c.codec.IsExpired(pair.RefreshCredential, now)

	if credentialExpired && refreshExpired {
		c.clearPersisted(ctx)
		c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
		c.metrics.Inc(MetricRestoreUnauthenticated)
		c.emitAudit(ctx, auditEventRestore, false, "", ErrUnauthorized, nil)
		return nil
	}

	refreshed := false
	if credentialExpired {
		next, err := c.gateway.Refresh(ctx, pair.RefreshCredential)
		if err != nil {
			if errors.Is(err, ErrNetwork) {
				// Backend unreachable. Keep the record for the next
				// start and surface the error.
				c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
				c.metrics.Inc(MetricRestoreUnauthenticated)
				c.emitAudit(ctx, auditEventRestore, false, "", err, nil)
				return err
			}
			c.metrics.Inc(MetricRefreshFailure)
			c.emitAudit(ctx, auditEventRefreshFailure, false, "", err, nil)
			c.clearPersisted(ctx)
			c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
			c.metrics.Inc(MetricRestoreUnauthenticated)
			return nil
		}
		pair = normalizePair(*next, pair)
		refreshed = true
		c.metrics.Inc(MetricRefreshSuccess)
		c.emitAudit(ctx, auditEventRefreshSuccess, true, "", nil, nil)
	}

	c.setPair(pair)
	if refreshed {
		if err := c.persistPair(ctx, pair); err != nil {
			c.setPair(CredentialPair{})
			c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
			return err
		}
		c.metrics.Inc(MetricRestoreRefreshed)
	}

	identity, err := c.fetchIdentityLocked(ctx)
	if err != nil {
		if errors.Is(err, ErrNetwork) {
			c.setPair(CredentialPair{})
			c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
			c.metrics.Inc(MetricRestoreUnauthenticated)
			c.emitAudit(ctx, auditEventRestore, false, "", err, nil)
			return err
		}
		c.forceLocalSignOut(ctx)
		c.metrics.Inc(MetricRestoreUnauthenticated)
		c.emitAudit(ctx, auditEventRestore, false, "", err, nil)
		return nil
	}

	if subject := c.codec.Subject(c.currentPair().Credential); subject != "" && subject != identity.ID {
		c.clearPersisted(ctx)
		c.setPair(CredentialPair{})
		c.setState(ctx, SessionState{Phase: PhaseError, Message: "persisted session does not match its credential subject"})
		c.metrics.Inc(MetricRestoreUnauthenticated)
		c.emitAudit(ctx, auditEventRestore, false, identity.ID, ErrSessionCorrupt, nil)
		return ErrSessionCorrupt
	}

	c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: identity})
	c.metrics.Inc(MetricRestoreAuthenticated)
	c.emitAudit(ctx, auditEventRestore, true, identity.ID, nil, nil)
	return nil
}

func (c *Controller) settleFailedRestore(ctx context.Context, cause error) error {
	if errors.Is(cause, storage.ErrCorrupt) {
		c.clearPersisted(ctx)
		c.setState(ctx, SessionState{Phase: PhaseError, Message: "persisted session could not be decoded"})
		c.metrics.Inc(MetricRestoreUnauthenticated)
		c.emitAudit(ctx, auditEventRestore, false, "", cause, nil)
		return errors.Join(ErrSessionCorrupt, cause)
	}

	// Storage unavailable at startup: degrade to memory-only and settle
	// unauthenticated rather than blocking the caller.
	c.stateMu.Lock()
	c.memoryOnly = true
	c.stateMu.Unlock()

	log.Print("sessionkit: session storage unavailable during restore; continuing memory-only")
	c.metrics.Inc(MetricStorageDegraded)
	c.emitAudit(ctx, auditEventStorageDegraded, false, "", cause, nil)

	c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
	c.metrics.Inc(MetricRestoreUnauthenticated)
	return nil
}

// Refresh forces a credential refresh outside the automatic retry path. On a
// non-network failure the session is terminated locally.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return ErrSessionBusy
	}
	defer c.opMu.Unlock()

	if c.CurrentState().Phase == PhaseUninitialized {
		return ErrNotInitialized
	}
	if c.currentPair().RefreshCredential == "" {
		return ErrNotAuthenticated
	}

	_, err := c.refreshLocked(ctx)
	if err != nil && !errors.Is(err, ErrNetwork) {
		c.forceLocalSignOut(ctx)
	}
	return err
}

// refreshLocked exchanges the refresh credential for a new pair and persists
// it. Callers must hold opMu. On failure the in-memory pair and persisted
// record are left as-is; the caller decides whether to terminate the session.
func (c *Controller) refreshLocked(ctx context.Context) (CredentialPair, error) {
	pair := c.currentPair()
	if pair.RefreshCredential == "" {
		c.metrics.Inc(MetricRefreshFailure)
		return CredentialPair{}, ErrUnauthorized
	}
	if c.codec.IsExpired(pair.RefreshCredential, c.clock()) {
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, "", ErrUnauthorized, nil)
		return CredentialPair{}, ErrUnauthorized
	}

	prev := c.CurrentState()
	if prev.Phase == PhaseAuthenticated {
		c.setState(ctx, SessionState{Phase: PhaseRefreshing, Identity: prev.Identity})
	}

	next, err := c.gateway.Refresh(ctx, pair.RefreshCredential)
	if err != nil {
		if prev.Phase == PhaseAuthenticated {
			c.setState(ctx, prev)
		}
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, "", err, nil)
		return CredentialPair{}, err
	}

	fresh := normalizePair(*next, pair)
	c.setPair(fresh)
	if err := c.persistPair(ctx, fresh); err != nil {
		if prev.Phase == PhaseAuthenticated {
			c.setState(ctx, prev)
		}
		return CredentialPair{}, err
	}

	if prev.Phase == PhaseAuthenticated {
		c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: prev.Identity})
	}
	c.metrics.Inc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditEventRefreshSuccess, true, "", nil, nil)
	return fresh, nil
}

// withCredentialRetryLocked runs call with the live credential and applies the
// single-refresh policy: one Unauthorized triggers exactly one refresh and one
// retry; a second Unauthorized terminates the session locally. Callers must
// hold opMu.
func (c *Controller) withCredentialRetryLocked(ctx context.Context, call func(credential string) error) error {
	pair := c.currentPair()
	if pair.Credential == "" {
		return ErrNotAuthenticated
	}

	err := call(pair.Credential)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	fresh, refreshErr := c.refreshLocked(ctx)
	if refreshErr != nil {
		if errors.Is(refreshErr, ErrNetwork) {
			return refreshErr
		}
		c.forceLocalSignOut(ctx)
		return ErrUnauthorized
	}

	err = call(fresh.Credential)
	if errors.Is(err, ErrUnauthorized) {
		// Fresh credential rejected immediately after a successful
		// refresh. Stop here instead of looping.
		c.metrics.Inc(MetricRefreshLoopBreak)
		c.emitAudit(ctx, auditEventRefreshLoopBreak, false, "", err, nil)
		c.forceLocalSignOut(ctx)
	}
	return err
}

func (c *Controller) fetchIdentityLocked(ctx context.Context) (*Identity, error) {
	var identity *Identity
	err := c.withCredentialRetryLocked(ctx, func(credential string) error {
		fetched, err := c.gateway.CurrentUser(ctx, credential)
		if err != nil {
			return err
		}
		identity = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// persistPair writes the pair to storage. When storage is unavailable and
// memory fallback is allowed the session degrades to memory-only instead of
// failing the operation.
func (c *Controller) persistPair(ctx context.Context, pair CredentialPair) error {
	err := c.storage.Save(ctx, storage.Record{
		Credential:        pair.Credential,
		RefreshCredential: pair.RefreshCredential,
	})
	if err == nil {
		c.stateMu.Lock()
		c.memoryOnly = false
		c.stateMu.Unlock()
		return nil
	}

	if c.config.Session.AllowMemoryFallback && errors.Is(err, storage.ErrUnavailable) {
		c.stateMu.Lock()
		c.memoryOnly = true
		c.stateMu.Unlock()

		log.Print("sessionkit: session storage unavailable; continuing memory-only")
		c.metrics.Inc(MetricStorageDegraded)
		c.emitAudit(ctx, auditEventStorageDegraded, false, "", err, nil)
		return nil
	}

	c.emitAudit(ctx, auditEventPersistenceFailure, false, "", err, nil)
	return err
}

// clearPersisted removes the stored record. Failures are logged and swallowed;
// local teardown never depends on storage health.
func (c *Controller) clearPersisted(ctx context.Context) {
	if err := c.storage.Clear(ctx); err != nil {
		log.Print("sessionkit: failed to clear persisted session: ", err)
		return
	}
	c.emitAudit(ctx, auditEventStorageCleared, true, "", nil, nil)
}

// forceLocalSignOut tears the session down locally: persisted record cleared,
// in-memory pair zeroed, state set to Unauthenticated. It never fails.
func (c *Controller) forceLocalSignOut(ctx context.Context) {
	c.clearPersisted(ctx)
	c.setPair(CredentialPair{})
	c.setState(ctx, SessionState{Phase: PhaseUnauthenticated})
}

func (c *Controller) setState(ctx context.Context, next SessionState) {
	next.Identity = next.Identity.clone()

	c.stateMu.Lock()
	prev := c.state
	c.state = next
	c.stateMu.Unlock()

	c.emitTransition(ctx, prev, next)

	c.subMu.Lock()
	callbacks := make([]func(SessionState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		callbacks = append(callbacks, fn)
	}
	c.subMu.Unlock()

	for _, fn := range callbacks {
		snapshot := next
		snapshot.Identity = next.Identity.clone()
		fn(snapshot)
	}
}

func (c *Controller) currentPair() CredentialPair {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return c.pair
}

func (c *Controller) setPair(pair CredentialPair) {
	c.stateMu.Lock()
	c.pair = pair
	c.stateMu.Unlock()
}

func (c *Controller) ready() error {
	if c == nil || c.gateway == nil || c.storage == nil || c.codec == nil {
		return ErrControllerNotReady
	}
	if c.closed.Load() {
		return ErrControllerNotReady
	}
	return nil
}

// normalizePair fills a missing rotated refresh credential from the previous
// pair. Some backends only return a new access credential on refresh.
func normalizePair(next, prev CredentialPair) CredentialPair {
	if next.RefreshCredential == "" {
		next.RefreshCredential = prev.RefreshCredential
	}
	return next
}
