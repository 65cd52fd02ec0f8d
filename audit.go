package sessionkit

import (
	"context"

	internalaudit "github.com/learnstack/sessionkit/internal/audit"
)

const (
	auditEventStateTransition    = "session.state_transition"
	auditEventRestore            = "session.restore"
	auditEventSignInSuccess      = "session.signin.success"
	auditEventSignInFailure      = "session.signin.failure"
	auditEventSignUpSuccess      = "session.signup.success"
	auditEventSignUpFailure      = "session.signup.failure"
	auditEventSignOut            = "session.signout"
	auditEventRefreshSuccess     = "session.refresh.success"
	auditEventRefreshFailure     = "session.refresh.failure"
	auditEventRefreshLoopBreak   = "session.refresh.loop_break"
	auditEventProfileUpdate      = "session.profile.update"
	auditEventPreferencesUpdate  = "session.preferences.update"
	auditEventAccountDeleted     = "session.account.deleted"
	auditEventStorageDegraded    = "session.storage.degraded"
	auditEventStorageCleared     = "session.storage.cleared"
	auditEventPersistenceFailure = "session.storage.save_failed"
)

type auditDispatcher = internalaudit.Dispatcher

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

func (c *Controller) emitAudit(ctx context.Context, eventType string, success bool, userID string, err error, meta func() map[string]string) {
	if c == nil || c.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: c.clock(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}

	c.audit.Emit(ctx, event)
}

func (c *Controller) emitTransition(ctx context.Context, from, to SessionState) {
	if c == nil || c.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: c.clock(),
		EventType: auditEventStateTransition,
		FromState: from.Phase.String(),
		ToState:   to.Phase.String(),
		Success:   true,
	}
	if to.Identity != nil {
		event.UserID = to.Identity.ID
		event.Email = to.Identity.Email
	}

	c.audit.Emit(ctx, event)
}
