package services

import (
	"context"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// Designs handles design requests
type Designs struct {
	*core
}

func (s *Designs) Create(ctx context.Context, actor *entities.User, req dto.CreateDesignOrderRequest) (*entities.DesignOrder, error) {
	now := s.now()
	attachments, err := buildAttachments(req.Attachments, actor.ID, now)
	if err != nil {
		return nil, err
	}

	var order *entities.DesignOrder
	err = s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		day := entities.OrderCodePrefix(entities.DesignOrderPrefix, now)
		existing, err := tx.DesignOrders().List(func(d *entities.DesignOrder) bool { return strings.HasPrefix(d.Code, day) })
		if err != nil {
			return err
		}
		codes := make([]string, len(existing))
		for i, d := range existing {
			codes[i] = d.Code
		}
		order, err = entities.NewDesignOrder(nextCode(entities.DesignOrderPrefix, now, codes), actor, req.DesignOrderInput, now)
		if err != nil {
			return err
		}
		order.Attachments = attachments
		if err := tx.DesignOrders().Put(order); err != nil {
			return err
		}
		if err := s.notifyStaff(tx, ob, entities.KindDesign, order.ID, order.Code); err != nil {
			return err
		}
		ob.add(events.NewOrderCreatedEvent(entities.KindDesign, order.ID, order.Code, actor.ID, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// mutate loads a design order the actor can see or work on, applies fn, saves
// it and records the status change. notify sends the requester an order_status notification when
// the status moved.
func (s *Designs) mutate(ctx context.Context, actor *entities.User, id string, notify bool,
	fn func(*entities.DesignOrder) error) (*entities.DesignOrder, error) {
	var order *entities.DesignOrder
	var expired error
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		expired = nil
		d, err := tx.DesignOrders().Get(id)
		if err != nil {
			return err
		}
		if !d.VisibleTo(actor) {
			return notFoundf("design order %s", id)
		}
		from := d.Status
		if err := fn(d); err != nil {
			if !entities.IsExpired(err) {
				return err
			}
			expired = err
		}
		if err := tx.DesignOrders().Put(d); err != nil {
			return err
		}
		if d.Status != from {
			ob.add(events.NewOrderStatusChangedEvent(entities.KindDesign, d.ID, d.Code,
				string(from), string(d.Status), actor.ID, lastNote(d.History), s.now()))
			if notify {
				if err := s.notifyRequester(tx, ob, d.RequesterID, entities.KindDesign, d.ID, d.Code, string(d.Status)); err != nil {
					return err
				}
			}
		}
		order = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired != nil {
		return order, expired
	}
	return order, nil
}

func requirePrintManager(actor *entities.User) error {
	if !actor.IsPrintManager() {
		return forbiddenf("print manager role required")
	}
	return nil
}

func (s *Designs) Approve(ctx context.Context, actor *entities.User, id string) (*entities.DesignOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(d *entities.DesignOrder) error {
		return d.Approve(actor.ID, s.now())
	})
}

func (s *Designs) Reject(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.DesignOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(d *entities.DesignOrder) error {
		return d.Reject(actor.ID, in.Comment, s.now())
	})
}

func (s *Designs) ReturnToRequester(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.DesignOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(d *entities.DesignOrder) error {
		return d.ReturnToRequester(actor.ID, in.Comment, s.now())
	})
}

func (s *Designs) MarkReadyForConfirm(ctx context.Context, actor *entities.User, id string) (*entities.DesignOrder, error) {
	if !actor.IsDeptEmployee() && !actor.IsPrintManager() {
		return nil, forbiddenf("department employee role required")
	}
	return s.mutate(ctx, actor, id, true, func(d *entities.DesignOrder) error {
		return d.MarkReadyForConfirm(actor.ID, s.now())
	})
}

// Confirm completes the order for its requester. A late confirmation
// suspends the order and returns entities.ErrConfirmationExpired together
// with the suspended order.
func (s *Designs) Confirm(ctx context.Context, actor *entities.User, id string) (*entities.DesignOrder, error) {
	return s.mutate(ctx, actor, id, false, func(d *entities.DesignOrder) error {
		if d.RequesterID != actor.ID {
			return forbiddenf("only the requester can confirm design order %s", d.Code)
		}
		return d.Confirm(actor.ID, s.now())
	})
}

func (s *Designs) UpdateStatus(ctx context.Context, actor *entities.User, id string, in dto.StatusUpdate) (*entities.DesignOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(d *entities.DesignOrder) error {
		return d.SetStatus(entities.DesignStatus(in.Status), in.Note, actor.ID, s.now())
	})
}

func (s *Designs) Attach(ctx context.Context, actor *entities.User, id string, in dto.AttachmentInput) (*entities.DesignOrder, error) {
	now := s.now()
	a, err := entities.NewAttachment(in.Type, in.Name, in.LinkURL, in.SizeBytes, actor.ID, now)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, false, func(d *entities.DesignOrder) error {
		d.Attach(a, now)
		return nil
	})
}

func (s *Designs) Get(ctx context.Context, actor *entities.User, id string) (*entities.DesignOrder, error) {
	var order *entities.DesignOrder
	err := s.view(ctx, func(tx repositories.Tx) error {
		d, err := tx.DesignOrders().Get(id)
		if err != nil {
			return err
		}
		if !d.VisibleTo(actor) {
			return notFoundf("design order %s", id)
		}
		order = d
		return nil
	})
	return order, err
}

func (s *Designs) List(ctx context.Context, actor *entities.User, f dto.OrderFilter) ([]*entities.DesignOrder, error) {
	var orders []*entities.DesignOrder
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		orders, err = tx.DesignOrders().List(func(d *entities.DesignOrder) bool {
			return d.VisibleTo(actor) &&
				(f.Status == "" || string(d.Status) == f.Status) &&
				(f.Priority == "" || string(d.Priority) == f.Priority)
		})
		return err
	})
	sortNewestFirst(orders, func(d *entities.DesignOrder) time.Time { return d.SubmittedAt })
	return orders, err
}
