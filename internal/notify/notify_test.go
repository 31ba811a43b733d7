package notify_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/achievement"
	"studyloop/internal/core"
	"studyloop/internal/notify"
	"studyloop/internal/store"
)

func newTestEngine(t *testing.T) (*notify.Engine, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ev, err := achievement.New(s)
	require.NoError(t, err)

	var counter int64
	idFunc := func() string {
		return "notif-" + strconv.FormatInt(atomic.AddInt64(&counter, 1), 10)
	}
	return notify.New(s, ev, idFunc), s
}

func TestScanEmitsLongStudyDayWarning(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := eng.Publisher().Subscribe(ctx)

	now := time.Date(2026, 7, 31, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartSession(core.StudySession{ID: "long", StartedAt: now.Add(-9 * time.Hour)}))
	_, err := s.StopActiveTimer(now, today)
	require.NoError(t, err)

	require.NoError(t, eng.Scan(now))

	select {
	case n := <-ch:
		require.Equal(t, core.NotifyWarning, n.Type)
	case <-time.After(50 * time.Millisecond):
		t.Fatal("expected a long-study-day warning after 9 hours of study")
	}
}

func TestScanFlushesAchievementNotifications(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := eng.Publisher().Subscribe(ctx)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	_, completed, err := s.UpdateAchievementProgress("streak_3", 3, 3, now)
	require.NoError(t, err)
	require.True(t, completed)

	require.NoError(t, eng.Scan(now))

	select {
	case n := <-ch:
		require.Equal(t, core.NotifyAchievement, n.Type)
		require.Equal(t, "streak_3", n.Data["achievement_code"])
	case <-time.After(50 * time.Millisecond):
		t.Fatal("expected the earned achievement to be flushed as a notification")
	}
}

func TestPublisherDropsSlowSubscriberRatherThanBlocking(t *testing.T) {
	pub := notify.NewPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := pub.Subscribe(ctx)
	for i := 0; i < 1000; i++ {
		pub.Publish(core.Notification{ID: "n"})
	}
	_ = ch
	require.Equal(t, 0, pub.SubscriberCount())
}

func TestSubscribeOnlyReceivesNotificationsAfterSubscription(t *testing.T) {
	pub := notify.NewPublisher()
	pub.Publish(core.Notification{ID: "before"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := pub.Subscribe(ctx)

	pub.Publish(core.Notification{ID: "after"})

	select {
	case n := <-ch:
		require.Equal(t, "after", n.ID)
	case <-time.After(50 * time.Millisecond):
		t.Fatal("expected to receive notification published after subscribing")
	}
}
