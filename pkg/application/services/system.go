package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// System manages settings, the approval policy and the audit trail
type System struct {
	*core
	log events.Log
}

func (s *System) ListSettings(ctx context.Context, actor *entities.User) ([]*entities.SystemSetting, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var rows []*entities.SystemSetting
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.Settings().List(nil)
		return err
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, err
}

func (s *System) GetSetting(ctx context.Context, actor *entities.User, key string) (*entities.SystemSetting, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var setting *entities.SystemSetting
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		setting, err = tx.Settings().Get(key)
		return err
	})
	return setting, err
}

// PutSetting creates or replaces a setting
func (s *System) PutSetting(ctx context.Context, actor *entities.User, in dto.SettingInput) (*entities.SystemSetting, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	setting, err := entities.NewSystemSetting(in.Key, in.Value, strings.TrimSpace(in.Description), actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.Settings().Put(setting)
	})
	return setting, err
}

func (s *System) DeleteSetting(ctx context.Context, actor *entities.User, key string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.Settings().Delete(key)
	})
}

func (s *System) Policy(ctx context.Context) (*entities.ApprovalPolicy, error) {
	var p *entities.ApprovalPolicy
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		p, err = tx.Policies().Get(entities.PolicyID)
		if errors.Is(err, repositories.ErrNotFound) {
			p, err = entities.DefaultApprovalPolicy(), nil
		}
		return err
	})
	return p, err
}

func (s *System) UpdatePolicy(ctx context.Context, actor *entities.User, in dto.PolicyInput) (*entities.ApprovalPolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var p *entities.ApprovalPolicy
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		p, err = tx.Policies().Get(entities.PolicyID)
		if errors.Is(err, repositories.ErrNotFound) {
			p, err = entities.DefaultApprovalPolicy(), nil
		}
		if err != nil {
			return err
		}
		if in.IsGlobalEnabled != nil {
			p.IsGlobalEnabled = *in.IsGlobalEnabled
		}
		if in.SelectiveServices != nil {
			for _, id := range in.SelectiveServices {
				if _, err := tx.Services().Get(id); err != nil {
					return notFoundf("service %s", id)
				}
			}
			p.SelectiveServices = in.SelectiveServices
		}
		p.UpdatedBy = actor.ID
		p.UpdatedAt = s.now()
		return tx.Policies().Put(p)
	})
	return p, err
}

// dayRange turns optional YYYY-MM-DD bounds into instants in loc. The end
// bound covers its whole day up to 23:59:59.
func dayRange(start, end string, loc *time.Location) (from, to *time.Time, err error) {
	if strings.TrimSpace(start) != "" {
		d, err := entities.ParseDate(start)
		if err != nil {
			return nil, nil, err
		}
		t := d.Time(loc)
		from = &t
	}
	if strings.TrimSpace(end) != "" {
		d, err := entities.ParseDate(end)
		if err != nil {
			return nil, nil, err
		}
		t := d.Time(loc).Add(24*time.Hour - time.Second)
		to = &t
	}
	return from, to, nil
}

func within(t time.Time, from, to *time.Time) bool {
	return (from == nil || !t.Before(*from)) && (to == nil || !t.After(*to))
}

func (s *System) AuditLogs(ctx context.Context, actor *entities.User, f dto.AuditFilter) ([]*entities.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	from, to, err := dayRange(f.Start, f.End, s.loc)
	if err != nil {
		return nil, err
	}
	var rows []*entities.AuditLog
	err = s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.AuditLogs().List(func(a *entities.AuditLog) bool {
			return matchesText(f.Action, a.Action) &&
				(f.ActorID == "" || a.ActorID == f.ActorID) &&
				within(a.CreatedAt, from, to)
		})
		return err
	})
	sortNewestFirst(rows, func(a *entities.AuditLog) time.Time { return a.CreatedAt })
	return rows, err
}

// Overview summarises open work across all request kinds
func (s *System) Overview(ctx context.Context, actor *entities.User) (*dto.AdminOverview, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out := &dto.AdminOverview{}
	err := s.view(ctx, func(tx repositories.Tx) error {
		orders, err := tx.Orders().List(nil)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if o.Status.Active() {
				out.ActiveOrders++
			}
			if o.Status == entities.OrderPending || o.Status == entities.OrderInReview {
				out.PendingApprovals++
			}
		}
		designs, err := tx.DesignOrders().List(nil)
		if err != nil {
			return err
		}
		for _, d := range designs {
			if d.Status != entities.DesignRejected {
				out.ActiveOrders++
			}
			if d.Status == entities.DesignPendingReview {
				out.PendingApprovals++
			}
		}
		prints, err := tx.PrintOrders().List(nil)
		if err != nil {
			return err
		}
		for _, p := range prints {
			if p.Status.Active() {
				out.ActiveOrders++
			}
			if p.Status == entities.PrintPendingReview {
				out.PendingApprovals++
			}
		}
		low, err := tx.InventoryItems().List(func(it *entities.InventoryItem) bool { return it.IsLowStock() })
		if err != nil {
			return err
		}
		out.InventoryAlerts = len(low)

		pricing, err := tx.Pricing().List(nil)
		if err != nil {
			return err
		}
		out.SavingsPercent = entities.SavingsPercent(pricing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EventHistory lists the domain events recorded for one entity, oldest first,
// starting at fromVersion
func (s *System) EventHistory(ctx context.Context, actor *entities.User, streamID string, fromVersion int) ([]dto.EventRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out := []dto.EventRecord{}
	if s.log == nil {
		return out, nil
	}
	rows, err := s.log.ReadEvents(streamID, fromVersion)
	if err != nil {
		return nil, err
	}
	for _, e := range rows {
		out = append(out, dto.EventRecord{
			Type:      e.Type(),
			StreamID:  e.StreamID(),
			Version:   e.Version(),
			Timestamp: e.Timestamp(),
			Data:      e.Data(),
		})
	}
	return out, nil
}
