package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"studyloop/internal/core"
)

// CreateNotification inserts a new, unsent Notification.
func (s *Store) CreateNotification(n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, _ := json.Marshal(n.Data)
	_, err := s.db.Exec(
		`INSERT INTO notifications (id, type, priority, title, body, created_at, scheduled_for, expires_at, action_link, action_label, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Type, n.Priority, n.Title, n.Body, n.CreatedAt, n.ScheduledFor, n.ExpiresAt, n.ActionLink, n.ActionLabel, string(data),
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.CreateNotification", "notification already exists", err)
	}
	return nil
}

// ListDueUnsentNotifications returns notifications scheduled at or before
// now that have not yet been sent and have not expired.
func (s *Store) ListDueUnsentNotifications(now time.Time) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, type, priority, title, body, created_at, scheduled_for, sent_at, read_at, dismissed_at, expires_at, action_link, action_label, data
		 FROM notifications WHERE sent_at IS NULL AND scheduled_for <= ? AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY scheduled_for ASC`,
		now, now,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListDueUnsentNotifications", "query failed", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// ListNotificationsSince returns sent notifications whose sent_at is after
// since, used by the engine's NotificationsList.
func (s *Store) ListNotificationsSince(since time.Time) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, type, priority, title, body, created_at, scheduled_for, sent_at, read_at, dismissed_at, expires_at, action_link, action_label, data
		 FROM notifications WHERE sent_at IS NOT NULL AND sent_at > ? ORDER BY sent_at ASC`,
		since,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListNotificationsSince", "query failed", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func scanNotifications(rows *sql.Rows) ([]core.Notification, error) {
	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		var dataJSON string
		if err := rows.Scan(&n.ID, &n.Type, &n.Priority, &n.Title, &n.Body, &n.CreatedAt, &n.ScheduledFor,
			&n.SentAt, &n.ReadAt, &n.DismissedAt, &n.ExpiresAt, &n.ActionLink, &n.ActionLabel, &dataJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(dataJSON), &n.Data)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationSent sets sent_at, returning KindConflict if already sent.
func (s *Store) MarkNotificationSent(id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE notifications SET sent_at = ? WHERE id = ? AND sent_at IS NULL`, sentAt, id)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.MarkNotificationSent", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindConflict, "store.MarkNotificationSent", "already sent or missing", nil)
	}
	return nil
}

// MarkNotificationRead sets read_at.
func (s *Store) MarkNotificationRead(id string, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE notifications SET read_at = ? WHERE id = ?`, readAt, id)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.MarkNotificationRead", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.MarkNotificationRead", "notification not found", nil)
	}
	return nil
}

// DismissNotification sets dismissed_at.
func (s *Store) DismissNotification(id string, dismissedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE notifications SET dismissed_at = ? WHERE id = ?`, dismissedAt, id)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.DismissNotification", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.DismissNotification", "notification not found", nil)
	}
	return nil
}

// CountNotificationsSentSince counts sent notifications of a type within a
// rolling window, backing the per-type frequency limit.
func (s *Store) CountNotificationsSentSince(notifType core.NotificationType, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE type = ? AND sent_at IS NOT NULL AND sent_at >= ?`,
		notifType, since,
	).Scan(&n)
	if err != nil {
		return 0, core.NewError(core.KindBackendUnavailable, "store.CountNotificationsSentSince", "query failed", err)
	}
	return n, nil
}

// SaveNotificationPreference upserts a per-type preference.
func (s *Store) SaveNotificationPreference(p core.NotificationPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels, _ := json.Marshal(p.Channels)
	_, err := s.db.Exec(
		`INSERT INTO notification_preferences (type, enabled, quiet_hours_start, quiet_hours_end, frequency_limit, channels)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(type) DO UPDATE SET
		   enabled = excluded.enabled,
		   quiet_hours_start = excluded.quiet_hours_start,
		   quiet_hours_end = excluded.quiet_hours_end,
		   frequency_limit = excluded.frequency_limit,
		   channels = excluded.channels`,
		p.Type, p.Enabled, p.QuietHoursStart, p.QuietHoursEnd, p.FrequencyLimit, string(channels),
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SaveNotificationPreference", "upsert failed", err)
	}
	return nil
}

// GetNotificationPreference returns the preference for a type, or
// KindNotFound if never configured (the caller should fall back to the
// config-file default).
func (s *Store) GetNotificationPreference(t core.NotificationType) (core.NotificationPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p core.NotificationPreference
	p.Type = t
	var channelsJSON string
	err := s.db.QueryRow(
		`SELECT enabled, quiet_hours_start, quiet_hours_end, frequency_limit, channels FROM notification_preferences WHERE type = ?`,
		t,
	).Scan(&p.Enabled, &p.QuietHoursStart, &p.QuietHoursEnd, &p.FrequencyLimit, &channelsJSON)
	if err != nil {
		return core.NotificationPreference{}, wrapNotFound("store.GetNotificationPreference", err)
	}
	_ = json.Unmarshal([]byte(channelsJSON), &p.Channels)
	return p, nil
}
