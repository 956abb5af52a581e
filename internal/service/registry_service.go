package service

import (
	"context"
	"sync"
	"time"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/pkg/events"
	"wa-concierge-be/pkg/wa"

	"github.com/google/uuid"
)

// EventPublisher is the bus the registry announces lifecycle transitions on.
// Publishing is best effort and never blocks a state transition.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ISessionRegistry maintains the single in-memory live handle per active
// phone and owns the two watcher tasks per handle. The store stays
// authoritative for status; the handle only owns timers and the fast-path
// activity timestamp.
type ISessionRegistry interface {
	EnsureSession(ctx context.Context, phone, displayName string) (uuid.UUID, error)
	TouchSession(ctx context.Context, phone string) error
	EndSession(ctx context.Context, phone, reason string) (bool, error)
	Shutdown()
}

type sessionHandle struct {
	id           uuid.UUID
	phone        string
	displayName  string
	startedAt    time.Time
	lastActivity time.Time

	cancelInactivity context.CancelFunc
	cancelForced     context.CancelFunc
}

func (h *sessionHandle) cancelWatchers() {
	if h.cancelInactivity != nil {
		h.cancelInactivity()
	}
	if h.cancelForced != nil {
		h.cancelForced()
	}
}

type sessionRegistry struct {
	store     IChatStoreService
	sender    wa.Sender
	publisher EventPublisher
	logger    logger.ILogger
	timing    config.SessionConfig

	mu      sync.Mutex
	handles map[string]*sessionHandle
}

func NewSessionRegistry(
	store IChatStoreService,
	sender wa.Sender,
	publisher EventPublisher,
	sysLogger logger.ILogger,
	timing config.SessionConfig,
) ISessionRegistry {
	return &sessionRegistry{
		store:     store,
		sender:    sender,
		publisher: publisher,
		logger:    sysLogger,
		timing:    timing,
		handles:   make(map[string]*sessionHandle),
	}
}

// EnsureSession resolves the live session for a phone, creating one when no
// usable prior session exists. The whole resolution runs under the registry
// lock so two concurrent callers for the same phone cannot race into
// duplicate session creation.
func (r *sessionRegistry) EnsureSession(ctx context.Context, phone, displayName string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if handle, ok := r.handles[phone]; ok {
		session, err := r.store.GetSession(ctx, handle.id)
		if err != nil {
			return uuid.Nil, err
		}
		if session != nil && session.IsActive() {
			handle.lastActivity = now
			if err := r.store.UpdateActivity(ctx, handle.id, now); err != nil {
				return uuid.Nil, err
			}
			// Restart the inactivity countdown here, not just in
			// TouchSession: a caller that bails out before touching would
			// otherwise leave a watcher that sees fresh activity on its
			// re-check, returns, and never gets replaced.
			if handle.cancelInactivity != nil {
				handle.cancelInactivity()
			}
			r.startInactivityWatcher(handle)
			return handle.id, nil
		}
		// Stale handle: the store says the session ended underneath us.
		handle.cancelWatchers()
		delete(r.handles, phone)
	}

	prior, err := r.store.GetSessionByPhone(ctx, phone)
	if err != nil {
		return uuid.Nil, err
	}
	if prior != nil && prior.IsActive() {
		if now.Sub(prior.StartedAt) < r.timing.ForcedLimit {
			handle := r.rehydrateHandle(prior.Id, phone, prior.DisplayName, prior.StartedAt, now)
			if err := r.store.UpdateActivity(ctx, handle.id, now); err != nil {
				return uuid.Nil, err
			}
			return handle.id, nil
		}
		// Active record older than the duration cap: close it out before
		// opening a fresh session.
		if err := r.store.EndSession(ctx, prior.Id, now, constant.ChatSessionEndReasonForcedLimit); err != nil {
			return uuid.Nil, err
		}
		r.publishEvent(events.NewSessionEnded(prior.Id, phone, constant.ChatSessionEndReasonForcedLimit, now))
	}

	sessionId, err := r.store.CreateSession(ctx, phone, displayName, now)
	if err != nil {
		return uuid.Nil, err
	}
	r.rehydrateHandle(sessionId, phone, displayName, now, now)
	r.publishEvent(events.NewSessionStarted(sessionId, phone, now))
	return sessionId, nil
}

// TouchSession bumps activity and restarts the inactivity watcher. The
// forced watcher is deliberately untouched: absolute duration runs from
// session start regardless of activity.
func (r *sessionRegistry) TouchSession(ctx context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle, ok := r.handles[phone]
	if !ok {
		return nil
	}

	now := time.Now()
	handle.lastActivity = now
	if err := r.store.UpdateActivity(ctx, handle.id, now); err != nil {
		return err
	}

	if handle.cancelInactivity != nil {
		handle.cancelInactivity()
	}
	r.startInactivityWatcher(handle)
	return nil
}

// EndSession is the explicit termination path. Returns false when no live
// handle exists for the phone; in that case the store is left untouched.
func (r *sessionRegistry) EndSession(ctx context.Context, phone, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle, ok := r.handles[phone]
	if !ok {
		return false, nil
	}

	now := time.Now()
	if err := r.store.EndSession(ctx, handle.id, now, reason); err != nil {
		return false, err
	}
	r.sendNotice(phone, constant.AgentSessionEndMessage)
	handle.cancelWatchers()
	delete(r.handles, phone)
	r.publishEvent(events.NewSessionEnded(handle.id, phone, reason, now))
	return true, nil
}

// Shutdown cancels every watcher without touching the store. Sessions stay
// active and get rehydrated on the next inbound message after restart.
func (r *sessionRegistry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for phone, handle := range r.handles {
		handle.cancelWatchers()
		delete(r.handles, phone)
	}
}

// rehydrateHandle installs a handle and starts both watchers. Caller must
// hold the registry lock.
func (r *sessionRegistry) rehydrateHandle(id uuid.UUID, phone, displayName string, startedAt, lastActivity time.Time) *sessionHandle {
	handle := &sessionHandle{
		id:           id,
		phone:        phone,
		displayName:  displayName,
		startedAt:    startedAt,
		lastActivity: lastActivity,
	}
	r.handles[phone] = handle
	r.startInactivityWatcher(handle)
	r.startForcedWatcher(handle)
	return handle
}

func (r *sessionRegistry) startInactivityWatcher(handle *sessionHandle) {
	ctx, cancel := context.WithCancel(context.Background())
	handle.cancelInactivity = cancel
	go r.runInactivityWatcher(ctx, handle)
}

func (r *sessionRegistry) startForcedWatcher(handle *sessionHandle) {
	ctx, cancel := context.WithCancel(context.Background())
	handle.cancelForced = cancel
	go r.runForcedWatcher(ctx, handle)
}

// runInactivityWatcher is the two-stage inactivity timer. Every wake
// re-reads the store before acting so that a watcher surviving a racing
// cancellation still does nothing harmful.
func (r *sessionRegistry) runInactivityWatcher(ctx context.Context, handle *sessionHandle) {
	if !sleepFor(ctx, r.timing.InactivityWarning) {
		return
	}

	session, err := r.store.GetSession(ctx, handle.id)
	if err != nil {
		r.logger.Error("session-registry", "inactivity watcher store check failed", map[string]interface{}{
			"session_id": handle.id.String(),
			"error":      err.Error(),
		})
		return
	}
	if session == nil || !session.IsActive() {
		return
	}
	if time.Since(session.LastActivity) < r.timing.InactivityWarning {
		// A touch landed between our wake and this read.
		return
	}

	r.sendNotice(handle.phone, constant.AgentSessionWarningMessage)

	if !sleepFor(ctx, r.timing.InactivityEnd-r.timing.InactivityWarning) {
		return
	}

	session, err = r.store.GetSession(ctx, handle.id)
	if err != nil {
		r.logger.Error("session-registry", "inactivity watcher store check failed", map[string]interface{}{
			"session_id": handle.id.String(),
			"error":      err.Error(),
		})
		return
	}
	if session == nil || !session.IsActive() {
		return
	}
	if time.Since(session.LastActivity) < r.timing.InactivityEnd {
		return
	}

	r.sendNotice(handle.phone, constant.AgentSessionEndMessage)
	r.expire(handle, constant.ChatSessionEndReasonInactivity)
}

// runForcedWatcher mirrors the inactivity watcher but measures from session
// start and is never restarted by touches.
func (r *sessionRegistry) runForcedWatcher(ctx context.Context, handle *sessionHandle) {
	warnAt := handle.startedAt.Add(r.timing.ForcedLimit - r.timing.ForcedWarningLead)
	endAt := handle.startedAt.Add(r.timing.ForcedLimit)

	if !sleepUntil(ctx, warnAt) {
		return
	}

	session, err := r.store.GetSession(ctx, handle.id)
	if err != nil {
		r.logger.Error("session-registry", "forced watcher store check failed", map[string]interface{}{
			"session_id": handle.id.String(),
			"error":      err.Error(),
		})
		return
	}
	if session == nil || !session.IsActive() {
		return
	}

	r.sendNotice(handle.phone, constant.AgentSessionLimitMessage)

	if !sleepUntil(ctx, endAt) {
		return
	}

	session, err = r.store.GetSession(ctx, handle.id)
	if err != nil {
		r.logger.Error("session-registry", "forced watcher store check failed", map[string]interface{}{
			"session_id": handle.id.String(),
			"error":      err.Error(),
		})
		return
	}
	if session == nil || !session.IsActive() {
		return
	}

	r.sendNotice(handle.phone, constant.AgentSessionEndMessage)
	r.expire(handle, constant.ChatSessionEndReasonForcedLimit)
}

// expire performs a watcher-driven termination. Runs under the lock so a
// concurrent touch or end for the same phone is ordered against it. Uses a
// detached context because the handle removal cancels the calling watcher's
// own context.
func (r *sessionRegistry) expire(handle *sessionHandle, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.handles[handle.phone]
	if !ok || current.id != handle.id {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	if err := r.store.EndSession(ctx, handle.id, now, reason); err != nil {
		r.logger.Error("session-registry", "failed to end session from watcher", map[string]interface{}{
			"session_id": handle.id.String(),
			"reason":     reason,
			"error":      err.Error(),
		})
		return
	}

	current.cancelWatchers()
	delete(r.handles, handle.phone)
	r.publishEvent(events.NewSessionEnded(handle.id, handle.phone, reason, now))
}

// sendNotice delivers a lifecycle notice. Delivery failures are logged and
// swallowed; they never block a state transition.
func (r *sessionRegistry) sendNotice(phone, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := r.sender.SendText(ctx, phone, text); err != nil {
		r.logger.Warn("session-registry", "failed to deliver session notice", map[string]interface{}{
			"phone": phone,
			"error": err.Error(),
		})
	}
}

func (r *sessionRegistry) publishEvent(event events.Event) {
	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("session-registry", "failed to publish session event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func sleepUntil(ctx context.Context, at time.Time) bool {
	return sleepFor(ctx, time.Until(at))
}
