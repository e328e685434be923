package services

import (
	"context"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// Notifications serves a user's inbox and preferences
type Notifications struct {
	*core
}

func (s *Notifications) List(ctx context.Context, actor *entities.User, unreadOnly bool) ([]*entities.Notification, error) {
	var rows []*entities.Notification
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.Notifications().List(func(n *entities.Notification) bool {
			return n.RecipientID == actor.ID && (!unreadOnly || !n.IsRead)
		})
		return err
	})
	sortNewestFirst(rows, func(n *entities.Notification) time.Time { return n.CreatedAt })
	return rows, err
}

func (s *Notifications) UnreadCount(ctx context.Context, actor *entities.User) (dto.UnreadCount, error) {
	rows, err := s.List(ctx, actor, true)
	return dto.UnreadCount{Count: len(rows)}, err
}

func (s *Notifications) MarkRead(ctx context.Context, actor *entities.User, id string) (*entities.Notification, error) {
	var n *entities.Notification
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		n, err = tx.Notifications().Get(id)
		if err != nil {
			return err
		}
		if n.RecipientID != actor.ID {
			return notFoundf("notification %s", id)
		}
		n.MarkRead(s.now())
		return tx.Notifications().Put(n)
	})
	return n, err
}

// MarkAllAsRead returns how many notifications changed
func (s *Notifications) MarkAllAsRead(ctx context.Context, actor *entities.User) (int, error) {
	marked := 0
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		marked = 0
		unread, err := tx.Notifications().List(func(n *entities.Notification) bool {
			return n.RecipientID == actor.ID && !n.IsRead
		})
		if err != nil {
			return err
		}
		now := s.now()
		for _, n := range unread {
			n.MarkRead(now)
			if err := tx.Notifications().Put(n); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	return marked, err
}

func (s *Notifications) GetPreferences(ctx context.Context, actor *entities.User) (*entities.NotificationPreference, error) {
	var prefs *entities.NotificationPreference
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		prefs, err = s.preferences(tx, actor.ID)
		return err
	})
	return prefs, err
}

func (s *Notifications) UpdatePreferences(ctx context.Context, actor *entities.User, in dto.PreferenceUpdate) (*entities.NotificationPreference, error) {
	var prefs *entities.NotificationPreference
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		prefs, err = s.preferences(tx, actor.ID)
		if err != nil {
			return err
		}
		set := func(dst *bool, v *bool) {
			if v != nil {
				*dst = *v
			}
		}
		set(&prefs.OrderUpdates, in.OrderUpdates)
		set(&prefs.Approvals, in.Approvals)
		set(&prefs.InventoryAlerts, in.InventoryAlerts)
		set(&prefs.WeeklyDigest, in.WeeklyDigest)
		set(&prefs.EmailSubscription, in.EmailSubscription)
		return tx.Preferences().Put(prefs)
	})
	return prefs, err
}
