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
)

// AvailabilityWindow is how far ahead AvailableDates looks by default
const AvailabilityWindow = 30

// Visits handles visit requests, the visit calendar and bookings
type Visits struct {
	*core
}

func (s *Visits) CreateRequest(ctx context.Context, actor *entities.User, in entities.VisitRequestInput) (*entities.VisitRequest, error) {
	v, err := entities.NewVisitRequest(actor, in, s.today(), s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.VisitRequests().Put(v)
	})
	return v, err
}

func (s *Visits) GetRequest(ctx context.Context, actor *entities.User, id string) (*entities.VisitRequest, error) {
	var v *entities.VisitRequest
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		v, err = s.visibleRequest(tx, actor, id)
		return err
	})
	return v, err
}

func (s *Visits) visibleRequest(tx repositories.Tx, actor *entities.User, id string) (*entities.VisitRequest, error) {
	v, err := tx.VisitRequests().Get(id)
	if err != nil {
		return nil, err
	}
	if !v.VisibleTo(actor) {
		return nil, notFoundf("visit request %s", id)
	}
	return v, nil
}

func (s *Visits) ListRequests(ctx context.Context, actor *entities.User, status entities.VisitStatus) ([]*entities.VisitRequest, error) {
	var rows []*entities.VisitRequest
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.VisitRequests().List(func(v *entities.VisitRequest) bool {
			return v.VisibleTo(actor) && (status == "" || v.Status == status)
		})
		return err
	})
	sortNewestFirst(rows, func(v *entities.VisitRequest) time.Time { return v.SubmittedAt })
	return rows, err
}

func (s *Visits) mutateRequest(ctx context.Context, actor *entities.User, id string, fn func(*entities.VisitRequest) error) (*entities.VisitRequest, error) {
	var v *entities.VisitRequest
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		var err error
		v, err = s.visibleRequest(tx, actor, id)
		if err != nil {
			return err
		}
		from := v.Status
		if err := fn(v); err != nil {
			return err
		}
		if err := tx.VisitRequests().Put(v); err != nil {
			return err
		}
		if v.Status == from || v.RequesterID == actor.ID {
			return nil
		}
		_, err = s.notify(tx, ob, v.RequesterID, wantsOrderUpdates, entities.NotifyOrderStatus,
			"Visit request updated",
			fmt.Sprintf("Your visit on %s is now %s", v.RequestedDate, v.Status),
			map[string]interface{}{"visit_request_id": v.ID, "status": string(v.Status)})
		return err
	})
	return v, err
}

func (s *Visits) Approve(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.VisitRequest, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutateRequest(ctx, actor, id, func(v *entities.VisitRequest) error {
		return v.Approve(actor.ID, in.Comment, s.now())
	})
}

// ClearSecurity completes approval of a manager-approved external visit
func (s *Visits) ClearSecurity(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.VisitRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.mutateRequest(ctx, actor, id, func(v *entities.VisitRequest) error {
		return v.ClearSecurity(actor.ID, in.Comment, s.now())
	})
}

func (s *Visits) Reject(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.VisitRequest, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutateRequest(ctx, actor, id, func(v *entities.VisitRequest) error {
		return v.Reject(in.Comment, s.now())
	})
}

func (s *Visits) Postpone(ctx context.Context, actor *entities.User, id string, in dto.PostponeInput) (*entities.VisitRequest, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutateRequest(ctx, actor, id, func(v *entities.VisitRequest) error {
		return v.Postpone(in.NewDate, in.Comment, s.today(), s.now())
	})
}

func (s *Visits) Cancel(ctx context.Context, actor *entities.User, id string) (*entities.VisitRequest, error) {
	return s.mutateRequest(ctx, actor, id, func(v *entities.VisitRequest) error {
		if v.RequesterID != actor.ID {
			return forbiddenf("only the requester can cancel a visit request")
		}
		return v.Cancel(s.now())
	})
}

func scheduleOn(tx repositories.Tx, date entities.Date) (*entities.VisitSchedule, error) {
	sched, err := repositories.First(tx.VisitSchedules(), func(v *entities.VisitSchedule) bool { return v.Date == date })
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundf("no visit schedule on %s", date)
	}
	return sched, err
}

func (s *Visits) CreateSchedule(ctx context.Context, actor *entities.User, in dto.ScheduleInput) (*entities.VisitSchedule, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	sched, err := entities.NewVisitSchedule(in.Date, in.AvailableSlots, in.VisitTypeRestriction, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	sched.IsBlocked = in.IsBlocked
	sched.BlockedReason = strings.TrimSpace(in.BlockedReason)
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		taken, err := repositories.Exists(tx.VisitSchedules(), func(v *entities.VisitSchedule) bool { return v.Date == sched.Date })
		if err != nil {
			return err
		}
		if taken {
			return conflictf("a schedule for %s already exists", sched.Date)
		}
		return tx.VisitSchedules().Put(sched)
	})
	return sched, err
}

// UpdateSchedule replaces the slots, block and restriction of a schedule; the date is fixed
func (s *Visits) UpdateSchedule(ctx context.Context, actor *entities.User, id string, in dto.ScheduleInput) (*entities.VisitSchedule, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	if in.VisitTypeRestriction != "" && !in.VisitTypeRestriction.Valid() {
		return nil, fmt.Errorf("%w: unknown visit type %q", entities.ErrValidation, in.VisitTypeRestriction)
	}
	var sched *entities.VisitSchedule
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		sched, err = tx.VisitSchedules().Get(id)
		if err != nil {
			return err
		}
		if err := sched.SetSlots(in.AvailableSlots); err != nil {
			return err
		}
		sched.IsBlocked = in.IsBlocked
		sched.BlockedReason = strings.TrimSpace(in.BlockedReason)
		sched.VisitTypeRestriction = in.VisitTypeRestriction
		sched.UpdatedAt = s.now()
		return tx.VisitSchedules().Put(sched)
	})
	return sched, err
}

func (s *Visits) DeleteSchedule(ctx context.Context, actor *entities.User, id string) error {
	if err := requirePrintManager(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		held, err := repositories.Exists(tx.VisitBookings(), func(b *entities.VisitBooking) bool {
			return b.ScheduleID == id && b.Status.HoldsSlot()
		})
		if err != nil {
			return err
		}
		if held {
			return conflictf("schedule %s has active bookings", id)
		}
		return tx.VisitSchedules().Delete(id)
	})
}

func (s *Visits) ListSchedules(ctx context.Context, start, end string) ([]*entities.VisitSchedule, error) {
	from, to, err := s.window(start, end)
	if err != nil {
		return nil, err
	}
	var rows []*entities.VisitSchedule
	err = s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.VisitSchedules().List(func(v *entities.VisitSchedule) bool {
			return !v.Date.Before(from) && !to.Before(v.Date)
		})
		return err
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, err
}

// window parses an optional date range, defaulting to today and the next 30 days
func (s *Visits) window(start, end string) (entities.Date, entities.Date, error) {
	from := s.today()
	if strings.TrimSpace(start) != "" {
		d, err := entities.ParseDate(start)
		if err != nil {
			return "", "", err
		}
		from = d
	}
	to := from.AddDays(AvailabilityWindow)
	if strings.TrimSpace(end) != "" {
		d, err := entities.ParseDate(end)
		if err != nil {
			return "", "", err
		}
		to = d
	}
	if to.Before(from) {
		return "", "", fmt.Errorf("%w: end date %s is before start date %s", entities.ErrValidation, to, from)
	}
	return from, to, nil
}

func takenSlots(tx repositories.Tx, scheduleID string) (map[string]bool, error) {
	bookings, err := tx.VisitBookings().List(func(b *entities.VisitBooking) bool {
		return b.ScheduleID == scheduleID && b.Status.HoldsSlot()
	})
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		taken[b.Slot] = true
	}
	return taken, nil
}

func visitTypeOr(t entities.VisitType) entities.VisitType {
	if t == "" {
		return entities.VisitInternal
	}
	return t
}

// Available lists the free slots on date for a visit type
func (s *Visits) Available(ctx context.Context, date string, visitType entities.VisitType) ([]string, error) {
	d, err := entities.ParseDate(date)
	if err != nil {
		return nil, err
	}
	visitType = visitTypeOr(visitType)
	var free []string
	err = s.view(ctx, func(tx repositories.Tx) error {
		sched, err := scheduleOn(tx, d)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		taken, err := takenSlots(tx, sched.ID)
		if err != nil {
			return err
		}
		free = sched.FreeSlots(visitType, taken)
		return nil
	})
	if free == nil {
		free = []string{}
	}
	return free, err
}

// AvailableDates lists the dates in the window that still have a free slot
func (s *Visits) AvailableDates(ctx context.Context, visitType entities.VisitType, start, end string) ([]dto.AvailableDate, error) {
	from, to, err := s.window(start, end)
	if err != nil {
		return nil, err
	}
	visitType = visitTypeOr(visitType)
	out := []dto.AvailableDate{}
	err = s.view(ctx, func(tx repositories.Tx) error {
		schedules, err := tx.VisitSchedules().List(func(v *entities.VisitSchedule) bool {
			return !v.Date.Before(from) && !to.Before(v.Date)
		})
		if err != nil {
			return err
		}
		sort.Slice(schedules, func(i, j int) bool { return schedules[i].Date < schedules[j].Date })
		for _, sched := range schedules {
			taken, err := takenSlots(tx, sched.ID)
			if err != nil {
				return err
			}
			if free := sched.FreeSlots(visitType, taken); len(free) > 0 {
				out = append(out, dto.AvailableDate{Date: sched.Date, Slots: free})
			}
		}
		return nil
	})
	return out, err
}

// Book reserves a slot for a visit request if the slot is still free
func (s *Visits) Book(ctx context.Context, actor *entities.User, in dto.BookingInput) (*entities.VisitBooking, error) {
	date, err := entities.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	var booking *entities.VisitBooking
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		req, err := s.visibleRequest(tx, actor, in.VisitRequestID)
		if err != nil {
			return err
		}
		if req.RequesterID != actor.ID && !actor.IsPrintManager() {
			return forbiddenf("only the requester or a print manager can book this visit")
		}
		switch req.Status {
		case entities.VisitRejected, entities.VisitCancelled, entities.VisitCompleted:
			return fmt.Errorf("%w: visit request is %s", entities.ErrInvalidTransition, req.Status)
		}
		sched, err := scheduleOn(tx, date)
		if err != nil {
			return err
		}
		taken, err := takenSlots(tx, sched.ID)
		if err != nil {
			return err
		}
		booking, err = entities.NewVisitBooking(req, sched, in.Slot, taken, s.now())
		if err != nil {
			return err
		}
		return tx.VisitBookings().Put(booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Visits) mutateBooking(ctx context.Context, actor *entities.User, id string,
	fn func(repositories.Tx, *entities.VisitBooking, *entities.VisitRequest) error) (*entities.VisitBooking, error) {
	var booking *entities.VisitBooking
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		b, err := tx.VisitBookings().Get(id)
		if err != nil {
			return err
		}
		req, err := s.visibleRequest(tx, actor, b.VisitRequestID)
		if err != nil {
			return notFoundf("booking %s", id)
		}
		if err := fn(tx, b, req); err != nil {
			return err
		}
		booking = b
		return tx.VisitBookings().Put(b)
	})
	return booking, err
}

func (s *Visits) ConfirmBooking(ctx context.Context, actor *entities.User, id string) (*entities.VisitBooking, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutateBooking(ctx, actor, id, func(_ repositories.Tx, b *entities.VisitBooking, _ *entities.VisitRequest) error {
		return b.Confirm(s.now())
	})
}

// CheckIn records the visitor's arrival and completes the visit request
func (s *Visits) CheckIn(ctx context.Context, actor *entities.User, id string) (*entities.VisitBooking, error) {
	return s.mutateBooking(ctx, actor, id, func(tx repositories.Tx, b *entities.VisitBooking, req *entities.VisitRequest) error {
		if req.RequesterID != actor.ID && !actor.IsPrintManager() {
			return forbiddenf("only the requester or a print manager can check in")
		}
		now := s.now()
		if err := b.CheckIn(now); err != nil {
			return err
		}
		req.Complete(now)
		return tx.VisitRequests().Put(req)
	})
}

func (s *Visits) CancelBooking(ctx context.Context, actor *entities.User, id string) (*entities.VisitBooking, error) {
	return s.mutateBooking(ctx, actor, id, func(_ repositories.Tx, b *entities.VisitBooking, req *entities.VisitRequest) error {
		if req.RequesterID != actor.ID && !actor.IsPrintManager() {
			return forbiddenf("only the requester or a print manager can cancel a booking")
		}
		if !b.Status.HoldsSlot() {
			return fmt.Errorf("%w: booking is %s", entities.ErrInvalidTransition, b.Status)
		}
		b.Cancel(s.now())
		return nil
	})
}

// ListBookings returns bookings whose visit request the actor can see, soonest first
func (s *Visits) ListBookings(ctx context.Context, actor *entities.User, status entities.BookingStatus) ([]*entities.VisitBooking, error) {
	var rows []*entities.VisitBooking
	err := s.view(ctx, func(tx repositories.Tx) error {
		visible, err := tx.VisitRequests().List(func(v *entities.VisitRequest) bool { return v.VisibleTo(actor) })
		if err != nil {
			return err
		}
		ids := make(map[string]bool, len(visible))
		for _, v := range visible {
			ids[v.ID] = true
		}
		rows, err = tx.VisitBookings().List(func(b *entities.VisitBooking) bool {
			return ids[b.VisitRequestID] && (status == "" || b.Status == status)
		})
		return err
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Slot < rows[j].Slot
	})
	return rows, err
}
