package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// Periodic check names
const (
	JobConfirmationDeadlines = "check_confirmation_deadlines"
	JobExpiredConfirmations  = "check_expired_confirmations"
	JobReadyForDelivery      = "notify_ready_for_delivery"
	JobOverdueOrders         = "check_overdue_orders"
	JobLowStock              = "check_low_stock"
	JobOverdueBookings       = "cancel_overdue_bookings"
)

const (
	deadlineWarningWindow = 24 * time.Hour
	deadlineWarningRepeat = time.Hour
	overdueAfter          = 7 * 24 * time.Hour
	alertRepeat           = 24 * time.Hour
	lowStockNamesShown    = 5
	lowStockItemsInData   = 10
)

// Maintenance runs the periodic checks. Each check is one transaction.
type Maintenance struct {
	*core
}

// notifiedSince reports whether recipient got a notification of kind matching
// key=value in its data at or after since. An empty key matches any data.
func notifiedSince(tx repositories.Tx, recipientID string, kind entities.NotificationType, key, value string, since time.Time) (bool, error) {
	return repositories.Exists(tx.Notifications(), func(n *entities.Notification) bool {
		return n.RecipientID == recipientID &&
			n.Type == kind &&
			!n.CreatedAt.Before(since) &&
			(key == "" || n.DataString(key) == value)
	})
}

// pendingConfirmation is what the confirmation checks need from design and print orders
type pendingConfirmation struct {
	kind        entities.OrderKind
	id, code    string
	requesterID string
	deadline    *time.Time
	within      bool
	expired     bool
}

func (s *Maintenance) pendingConfirmations(tx repositories.Tx, now time.Time) ([]pendingConfirmation, error) {
	var out []pendingConfirmation
	designs, err := tx.DesignOrders().List(func(d *entities.DesignOrder) bool { return d.Status == entities.DesignPendingConfirm })
	if err != nil {
		return nil, err
	}
	for _, d := range designs {
		out = append(out, pendingConfirmation{
			kind: entities.KindDesign, id: d.ID, code: d.Code, requesterID: d.RequesterID,
			deadline: d.ConfirmationDeadline,
			within:   d.DeadlineWithin(now, deadlineWarningWindow),
			expired:  d.IsConfirmationExpired(now),
		})
	}
	prints, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool { return p.Status == entities.PrintPendingConfirm })
	if err != nil {
		return nil, err
	}
	for _, p := range prints {
		out = append(out, pendingConfirmation{
			kind: entities.KindPrint, id: p.ID, code: p.Code, requesterID: p.RequesterID,
			deadline: p.ConfirmationDeadline,
			within:   p.DeadlineWithin(now, deadlineWarningWindow),
			expired:  p.IsConfirmationExpired(now),
		})
	}
	return out, nil
}

// CheckConfirmationDeadlines warns requesters whose confirmation deadline
// falls within the next 24 hours, at most once an hour per order
func (s *Maintenance) CheckConfirmationDeadlines(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobConfirmationDeadlines}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*res = dto.JobResult{Job: JobConfirmationDeadlines}
		now := s.now()
		pending, err := s.pendingConfirmations(tx, now)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if !p.within {
				continue
			}
			res.Processed++
			sent, err := notifiedSince(tx, p.requesterID, entities.NotifyDeadlineWarning, "order_id", p.id, now.Add(-deadlineWarningRepeat))
			if err != nil {
				return err
			}
			if sent {
				continue
			}
			hours := int(p.deadline.Sub(now).Hours())
			n, err := s.notify(tx, ob, p.requesterID, wantsOrderUpdates, entities.NotifyDeadlineWarning,
				"Confirmation deadline approaching",
				fmt.Sprintf("Please confirm %s order %s within %d hours or it will be suspended", p.kind, p.code, hours),
				orderData(p.kind, p.id, p.code, "deadline", p.deadline.UTC().Format(time.RFC3339)))
			if err != nil {
				return err
			}
			if n != nil {
				res.Notified++
			}
		}
		return nil
	})
	return res, err
}

// CheckExpiredConfirmations suspends orders whose confirmation window has passed
func (s *Maintenance) CheckExpiredConfirmations(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobExpiredConfirmations}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*res = dto.JobResult{Job: JobExpiredConfirmations}
		now := s.now()
		designs, err := tx.DesignOrders().List(func(d *entities.DesignOrder) bool { return d.IsConfirmationExpired(now) })
		if err != nil {
			return err
		}
		for _, d := range designs {
			if err := d.Suspend(now); err != nil {
				return err
			}
			if err := tx.DesignOrders().Put(d); err != nil {
				return err
			}
			if err := s.suspended(tx, ob, res, entities.KindDesign, d.ID, d.Code, d.RequesterID, string(entities.DesignPendingConfirm), string(d.Status), now); err != nil {
				return err
			}
		}
		prints, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool { return p.IsConfirmationExpired(now) })
		if err != nil {
			return err
		}
		for _, p := range prints {
			if err := p.Suspend(now); err != nil {
				return err
			}
			if err := tx.PrintOrders().Put(p); err != nil {
				return err
			}
			if err := s.suspended(tx, ob, res, entities.KindPrint, p.ID, p.Code, p.RequesterID, string(entities.PrintPendingConfirm), string(p.Status), now); err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

func (s *Maintenance) suspended(tx repositories.Tx, ob *outbox, res *dto.JobResult, kind entities.OrderKind, id, code, requesterID, from, to string, now time.Time) error {
	res.Processed++
	ob.add(events.NewOrderStatusChangedEvent(kind, id, code, from, to, SystemActor().ID, "confirmation window expired", now))
	n, err := s.notify(tx, ob, requesterID, nil, entities.NotifyOrderStatus,
		"Order suspended",
		fmt.Sprintf("Your %s order %s was suspended because it was not confirmed in time", kind, code),
		orderData(kind, id, code, "status", to))
	if n != nil {
		res.Notified++
	}
	return err
}

// NotifyReadyForDelivery tells requesters once that a confirmed print order
// is waiting in the warehouse
func (s *Maintenance) NotifyReadyForDelivery(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobReadyForDelivery}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*res = dto.JobResult{Job: JobReadyForDelivery}
		prints, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool {
			return p.Status == entities.PrintInWarehouse && p.ConfirmedAt != nil
		})
		if err != nil {
			return err
		}
		for _, p := range prints {
			res.Processed++
			sent, err := notifiedSince(tx, p.RequesterID, entities.NotifyReadyForDelivery, "order_id", p.ID, time.Time{})
			if err != nil {
				return err
			}
			if sent {
				continue
			}
			n, err := s.notify(tx, ob, p.RequesterID, wantsOrderUpdates, entities.NotifyReadyForDelivery,
				"Order ready for delivery",
				fmt.Sprintf("Print order %s is ready in the warehouse; schedule its delivery", p.Code),
				orderData(entities.KindPrint, p.ID, p.Code))
			if err != nil {
				return err
			}
			if n != nil {
				res.Notified++
			}
		}
		return nil
	})
	return res, err
}

// CheckOverdueOrders alerts managers about work stuck for more than 7 days
func (s *Maintenance) CheckOverdueOrders(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobOverdueOrders}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*res = dto.JobResult{Job: JobOverdueOrders}
		now := s.now()
		cutoff := now.Add(-overdueAfter)

		type overdue struct {
			kind     entities.OrderKind
			id, code string
			days     int
		}
		var stuck []overdue
		designs, err := tx.DesignOrders().List(func(d *entities.DesignOrder) bool {
			return d.Status == entities.DesignInDesign && d.SubmittedAt.Before(cutoff)
		})
		if err != nil {
			return err
		}
		for _, d := range designs {
			stuck = append(stuck, overdue{entities.KindDesign, d.ID, d.Code, int(now.Sub(d.SubmittedAt).Hours() / 24)})
		}
		prints, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool {
			return p.Status == entities.PrintInProduction && p.SubmittedAt.Before(cutoff)
		})
		if err != nil {
			return err
		}
		for _, p := range prints {
			stuck = append(stuck, overdue{entities.KindPrint, p.ID, p.Code, int(now.Sub(p.SubmittedAt).Hours() / 24)})
		}
		if len(stuck) == 0 {
			return nil
		}

		managers, err := tx.Users().List(func(u *entities.User) bool {
			return u.IsActive && u.HasRole(entities.RolePrintManager, entities.RoleDeptManager)
		})
		if err != nil {
			return err
		}
		for _, o := range stuck {
			res.Processed++
			for _, m := range managers {
				sent, err := notifiedSince(tx, m.ID, entities.NotifySystem, "order_id", o.id, now.Add(-alertRepeat))
				if err != nil {
					return err
				}
				if sent {
					continue
				}
				if _, err := s.notify(tx, ob, m.ID, nil, entities.NotifySystem,
					"Overdue order",
					fmt.Sprintf("%s order %s has been open for %d days", o.kind, o.code, o.days),
					orderData(o.kind, o.id, o.code)); err != nil {
					return err
				}
				res.Notified++
			}
		}
		return nil
	})
	return res, err
}

// CheckLowStock sends each stock manager one low-stock summary a day
func (s *Maintenance) CheckLowStock(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobLowStock}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*res = dto.JobResult{Job: JobLowStock}
		now := s.now()
		low, err := tx.InventoryItems().List(func(it *entities.InventoryItem) bool { return it.IsLowStock() })
		if err != nil {
			return err
		}
		res.Processed = len(low)
		if len(low) == 0 {
			return nil
		}
		sort.Slice(low, func(i, j int) bool { return low[i].Name < low[j].Name })

		names := make([]string, 0, lowStockNamesShown)
		for i, it := range low {
			if i == lowStockNamesShown {
				break
			}
			names = append(names, it.Name)
		}
		message := fmt.Sprintf("%d items are low on stock: %s", len(low), strings.Join(names, ", "))
		if extra := len(low) - lowStockNamesShown; extra > 0 {
			message += fmt.Sprintf(" and %d more", extra)
		}
		items := make([]interface{}, 0, lowStockItemsInData)
		for i, it := range low {
			if i == lowStockItemsInData {
				break
			}
			items = append(items, map[string]interface{}{
				"id":               it.ID,
				"name":             it.Name,
				"current_quantity": it.CurrentQuantity,
				"min_quantity":     it.MinQuantity,
			})
		}

		managers, err := tx.Users().List(func(u *entities.User) bool {
			return u.IsActive && u.HasRole(entities.RolePrintManager, entities.RoleAdmin)
		})
		if err != nil {
			return err
		}
		for _, m := range managers {
			sent, err := notifiedSince(tx, m.ID, entities.NotifyInventoryLow, "", "", now.Add(-alertRepeat))
			if err != nil {
				return err
			}
			if sent {
				continue
			}
			if _, err := s.notify(tx, ob, m.ID, nil, entities.NotifyInventoryLow, "Low stock alert", message,
				map[string]interface{}{"count": len(low), "items": items}); err != nil {
				return err
			}
			res.Notified++
		}
		return nil
	})
	return res, err
}

// CancelOverdueBookings cancels confirmed bookings whose visitor never checked in
func (s *Maintenance) CancelOverdueBookings(ctx context.Context) (*dto.JobResult, error) {
	res := &dto.JobResult{Job: JobOverdueBookings}
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		*res = dto.JobResult{Job: JobOverdueBookings}
		now := s.now()
		bookings, err := tx.VisitBookings().List(func(b *entities.VisitBooking) bool { return b.IsOverdue(now, s.loc) })
		if err != nil {
			return err
		}
		for _, b := range bookings {
			b.Cancel(now)
			if err := tx.VisitBookings().Put(b); err != nil {
				return err
			}
			res.Processed++
			req, err := tx.VisitRequests().Get(b.VisitRequestID)
			if errors.Is(err, repositories.ErrNotFound) {
				s.logger.Warn().Str("booking", b.ID).Str("visit_request", b.VisitRequestID).
					Msg("overdue booking has no visit request; cancelled the booking only")
				continue
			}
			if err != nil {
				return err
			}
			req.CancelOverdue(now)
			if err := tx.VisitRequests().Put(req); err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

// Run executes one check by name
func (s *Maintenance) Run(ctx context.Context, name string) (*dto.JobResult, error) {
	fn, ok := s.Checks()[name]
	if !ok {
		return nil, notFoundf("job %q", name)
	}
	return fn(ctx)
}

// Checks maps every job name to its check
func (s *Maintenance) Checks() map[string]func(context.Context) (*dto.JobResult, error) {
	return map[string]func(context.Context) (*dto.JobResult, error){
		JobConfirmationDeadlines: s.CheckConfirmationDeadlines,
		JobExpiredConfirmations:  s.CheckExpiredConfirmations,
		JobReadyForDelivery:      s.NotifyReadyForDelivery,
		JobOverdueOrders:         s.CheckOverdueOrders,
		JobLowStock:              s.CheckLowStock,
		JobOverdueBookings:       s.CancelOverdueBookings,
	}
}
