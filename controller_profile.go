package sessionkit

import "context"

// ReloadIdentity refetches the authenticated principal from the backend and
// replaces the in-memory identity wholesale.
func (c *Controller) ReloadIdentity(ctx context.Context) (*Identity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.opMu.TryLock() {
		c.metrics.Inc(MetricSessionBusyRejected)
		return nil, ErrSessionBusy
	}
	defer c.opMu.Unlock()

	prev := c.CurrentState()
	if prev.Phase == PhaseUninitialized {
		return nil, ErrNotInitialized
	}
	if !prev.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	identity, err := c.fetchIdentityLocked(ctx)
	if err != nil {
		return nil, err
	}

	c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: identity})
	c.metrics.Inc(MetricIdentityReload)
	return identity.clone(), nil
}

// UpdateProfile sends a partial profile change to the backend. The in-memory
// identity is only updated after the backend acknowledges; there is no
// optimistic application or rollback.
func (c *Controller) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
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

	var updated *Profile
	err := c.withCredentialRetryLocked(ctx, func(credential string) error {
		profile, err := c.gateway.UpdateProfile(ctx, credential, update)
		if err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		c.metrics.Inc(MetricProfileUpdateFailure)
		c.emitAudit(ctx, auditEventProfileUpdate, false, userIDOf(prev), err, nil)
		return err
	}

	identity := prev.Identity
	identity.Profile = *updated
	c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: identity})
	c.metrics.Inc(MetricProfileUpdateSuccess)
	c.emitAudit(ctx, auditEventProfileUpdate, true, identity.ID, nil, nil)
	return nil
}

// UpdatePreferences sends a partial preferences change to the backend. Same
// acknowledge-then-merge rule as UpdateProfile.
func (c *Controller) UpdatePreferences(ctx context.Context, update PreferencesUpdate) error {
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

	var updated *Preferences
	err := c.withCredentialRetryLocked(ctx, func(credential string) error {
		preferences, err := c.gateway.UpdatePreferences(ctx, credential, update)
		if err != nil {
			return err
		}
		updated = preferences
		return nil
	})
	if err != nil {
		c.metrics.Inc(MetricPreferencesUpdateFailure)
		c.emitAudit(ctx, auditEventPreferencesUpdate, false, userIDOf(prev), err, nil)
		return err
	}

	identity := prev.Identity
	identity.Preferences = *updated
	c.setState(ctx, SessionState{Phase: PhaseAuthenticated, Identity: identity})
	c.metrics.Inc(MetricPreferencesUpdateSuccess)
	c.emitAudit(ctx, auditEventPreferencesUpdate, true, identity.ID, nil, nil)
	return nil
}
