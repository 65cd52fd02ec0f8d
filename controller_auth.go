package sessionkit

import (
	"context"
	"log"
)

// SignIn authenticates with email and password. On success the issued pair is
// persisted before the state moves to PhaseAuthenticated; on failure the
// previous state is restored and nothing is written.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return ErrSessionBusy
	}
	defer c.opMu.Unlock()

	prev := c.CurrentState()
	if prev.Phase == PhaseUninitialized {
		return ErrNotInitialized
	}

	c.setState(ctx, SessionState{Phase: PhaseAuthenticating})

	grant, err := c.gateway.SignIn(ctx, email, password)
	if err != nil {
		c.setState(ctx, prev)
		c.metrics.Inc(MetricSignInFailure)
		c.emitAudit(ctx, auditEventSignInFailure, false, "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return err
	}

	return c.adoptGrantLocked(ctx, grant, prev, auditEventSignInSuccess, MetricSignInSuccess)
}

// SignUp registers a new account and signs it in atomically from the
// controller's perspective: the same persistence and state rules as SignIn
// apply.
func (c *Controller) SignUp(ctx context.Context, input SignUpInput) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return ErrSessionBusy
	}
	defer c.opMu.Unlock()

	prev := c.CurrentState()
	if prev.Phase == PhaseUninitialized {
		return ErrNotInitialized
	}

	c.setState(ctx, SessionState{Phase: PhaseAuthenticating})

	grant, err := c.gateway.SignUp(ctx, input)
	if err != nil {
		c.setState(ctx, prev)
		c.metrics.Inc(MetricSignUpFailure)
		c.emitAudit(ctx, auditEventSignUpFailure, false, "", err, func() map[string]string {
			return map[string]string{"email": input.Email}
		})
		return err
	}

	return c.adoptGrantLocked(ctx, grant, prev, auditEventSignUpSuccess, MetricSignUpSuccess)
}

// adoptGrantLocked persists a freshly issued grant and promotes the session to
// PhaseAuthenticated. A persistence failure that cannot degrade to memory-only
// rolls everything back. Callers must hold opMu.
func (c *Controller) adoptGrantLocked(ctx context.Context, grant *AuthGrant, prev SessionState, event string, metric MetricID) error {
	if grant == nil || grant.Pair.Credential == "" {
		c.setState(ctx, prev)
		return ErrServer
	}

	c.setPair(grant.Pair)
	if err := c.persistPair(ctx, grant.Pair); err != nil {
		c.setPair(CredentialPair{})
		c.setState(ctx, prev)
		return err
	}

	identity := grant.Identity
	c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: &identity})
	c.metrics.Inc(metric)
	c.emitAudit(ctx, event, true, identity.ID, nil, nil)
	return nil
}

// SignOut terminates the session. The remote revocation is best-effort: local
// state and storage are cleared unconditionally and SignOut reports success
// even when the backend is unreachable.
func (c *Controller) SignOut(ctx context.Context) error {
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

	prev := c.CurrentState()
	pair := c.currentPair()

	if pair.Credential != "" {
		if err := c.gateway.SignOut(ctx, pair.Credential); err != nil {
			log.Print("sessionkit: remote sign-out failed; clearing local session anyway: ", err)
		}
	}

	c.forceLocalSignOut(ctx)
	c.metrics.Inc(MetricSignOut)
	c.emitAudit(ctx, auditEventSignOut, true, userIDOf(prev), nil, nil)
	return nil
}

// DeleteAccount permanently removes the account on the backend and then tears
// the session down locally. Unlike SignOut, the remote call must succeed.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return ErrSessionBusy
	}
	defer c.opMu.Unlock()

	prev := c.CurrentState()
	if prev.Phase == PhaseUninitialized {
		return ErrNotInitialized
	}
	if !prev.Authenticated() {
		return ErrNotAuthenticated
	}

	err := c.withCredentialRetryLocked(ctx, func(credential string) error {
		return c.gateway.DeleteAccount(ctx, credential)
	})
	if err != nil {
		c.emitAudit(ctx, auditEventAccountDeleted, false, userIDOf(prev), err, nil)
		return err
	}

	c.forceLocalSignOut(ctx)
	c.metrics.Inc(MetricAccountDeleted)
	c.emitAudit(ctx, auditEventAccountDeleted, true, userIDOf(prev), nil, nil)
	return nil
}

func userIDOf(state SessionState) string {
	if state.Identity == nil {
		return ""
	}
	return state.Identity.ID
}
