package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTiming() config.SessionConfig {
	return config.SessionConfig{
		InactivityWarning: 60 * time.Millisecond,
		InactivityEnd:     120 * time.Millisecond,
		ForcedLimit:       500 * time.Millisecond,
		ForcedWarningLead: 150 * time.Millisecond,
	}
}

func newTestRegistry(store IChatStoreService, sender *fakeSender, timing config.SessionConfig) ISessionRegistry {
	return NewSessionRegistry(store, sender, nil, noopLogger{}, timing)
}

func TestEnsureSessionSingleActivePerPhone(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	const phone = "628111222333"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.EnsureSession(context.Background(), phone, "Tester")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.activeCount(phone))
}

func TestEnsureSessionReusesActiveSession(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	first, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	second, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.activeCount("628"))
}

func TestEnsureSessionRestartsInactivityWatcher(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	// A second resolve with no TouchSession afterwards. The first watcher
	// wakes, sees the bumped activity and returns; the resolve must have
	// scheduled a replacement or the session never inactivity-expires.
	time.Sleep(30 * time.Millisecond)
	_, err = registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.session(id).Status == constant.ChatSessionStatusEnded
	}, time.Second, 5*time.Millisecond, "session never expired after resolve without touch")

	assert.Equal(t, constant.ChatSessionEndReasonInactivity, store.session(id).EndReason)
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionWarningMessage))
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionEndMessage))
}

func TestEnsureSessionSupersedesExpiredSession(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	timing := testTiming()
	registry := newTestRegistry(store, sender, timing)
	defer registry.Shutdown()

	// Seed an active session already past the absolute cap.
	staleStart := time.Now().Add(-2 * timing.ForcedLimit)
	staleId, err := store.CreateSession(context.Background(), "628", "Tester", staleStart)
	require.NoError(t, err)

	freshId, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	assert.NotEqual(t, staleId, freshId)
	assert.Equal(t, 1, store.activeCount("628"))

	stale := store.session(staleId)
	assert.Equal(t, constant.ChatSessionStatusEnded, stale.Status)
	assert.Equal(t, constant.ChatSessionEndReasonForcedLimit, stale.EndReason)
}

func TestTouchSessionNeverDecreasesActivity(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	prev := store.session(id).LastActivity
	for i := 0; i < 5; i++ {
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, registry.TouchSession(context.Background(), "628"))
		current := store.session(id).LastActivity
		assert.False(t, current.Before(prev), "last activity went backwards")
		prev = current
	}
}

func TestInactivityWatcherWarnsThenEnds(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sender.countOf(constant.AgentSessionWarningMessage) == 1
	}, time.Second, 5*time.Millisecond, "warning never sent")

	require.Eventually(t, func() bool {
		return store.session(id).Status == constant.ChatSessionStatusEnded
	}, time.Second, 5*time.Millisecond, "session never ended")

	ended := store.session(id)
	assert.Equal(t, constant.ChatSessionEndReasonInactivity, ended.EndReason)
	assert.NotNil(t, ended.EndedAt)

	// Exactly one warning and one end notice.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionWarningMessage))
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionEndMessage))
}

func TestTouchCancelsRunningInactivityWatcher(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	timing := testTiming()
	registry := newTestRegistry(store, sender, timing)
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	// Touch halfway through stage 1 of every watcher instance. The warning
	// must never fire while touches keep landing.
	for i := 0; i < 6; i++ {
		time.Sleep(timing.InactivityWarning / 2)
		require.NoError(t, registry.TouchSession(context.Background(), "628"))
	}

	assert.Zero(t, sender.countOf(constant.AgentSessionWarningMessage))
	assert.Equal(t, constant.ChatSessionStatusActive, store.session(id).Status)

	// Once touches stop, a fresh watcher runs its full course.
	require.Eventually(t, func() bool {
		return store.session(id).Status == constant.ChatSessionStatusEnded
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, constant.ChatSessionEndReasonInactivity, store.session(id).EndReason)
}

func TestForcedWatcherIgnoresTouches(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	timing := config.SessionConfig{
		// Inactivity expiry is pushed out so only the forced path can fire.
		InactivityWarning: 5 * time.Second,
		InactivityEnd:     10 * time.Second,
		ForcedLimit:       250 * time.Millisecond,
		ForcedWarningLead: 100 * time.Millisecond,
	}
	registry := newTestRegistry(store, sender, timing)
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = registry.TouchSession(context.Background(), "628")
			}
		}
	}()
	defer close(stop)

	require.Eventually(t, func() bool {
		return store.session(id).Status == constant.ChatSessionStatusEnded
	}, 2*time.Second, 5*time.Millisecond, "forced watcher never fired despite touches")

	assert.Equal(t, constant.ChatSessionEndReasonForcedLimit, store.session(id).EndReason)
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionLimitMessage))
}

func TestEndSessionUnknownPhone(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	ended, err := registry.EndSession(context.Background(), "unknown", constant.ChatSessionEndReasonEnded)
	require.NoError(t, err)
	assert.False(t, ended)
	assert.Empty(t, sender.texts())
}

func TestEndSessionExplicit(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	ended, err := registry.EndSession(context.Background(), "628", constant.ChatSessionEndReasonEnded)
	require.NoError(t, err)
	assert.True(t, ended)

	session := store.session(id)
	assert.Equal(t, constant.ChatSessionStatusEnded, session.Status)
	assert.Equal(t, constant.ChatSessionEndReasonEnded, session.EndReason)
	assert.Equal(t, 1, sender.countOf(constant.AgentSessionEndMessage))

	// Second call finds no handle.
	ended, err = registry.EndSession(context.Background(), "628", constant.ChatSessionEndReasonEnded)
	require.NoError(t, err)
	assert.False(t, ended)
}

func TestDeliveryFailureDoesNotBlockTransition(t *testing.T) {
	store := newFakeChatStore()
	sender := &fakeSender{fail: true}
	registry := newTestRegistry(store, sender, testTiming())
	defer registry.Shutdown()

	id, err := registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.session(id).Status == constant.ChatSessionStatusEnded
	}, time.Second, 5*time.Millisecond, "transition blocked by delivery failure")
	assert.Equal(t, constant.ChatSessionEndReasonInactivity, store.session(id).EndReason)
}
