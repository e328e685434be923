package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// Orders handles generic catalog orders and their approval workflow
type Orders struct {
	*core
}

func (s *Orders) policy(tx repositories.Tx) (*entities.ApprovalPolicy, error) {
	p, err := tx.Policies().Get(entities.PolicyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return entities.DefaultApprovalPolicy(), nil
	}
	return p, err
}

func (s *Orders) nextCode(tx repositories.Tx, now time.Time) (string, error) {
	day := entities.OrderCodePrefix(entities.GenericOrderPrefix, now)
	orders, err := tx.Orders().List(func(o *entities.Order) bool { return strings.HasPrefix(o.Code, day) })
	if err != nil {
		return "", err
	}
	codes := make([]string, len(orders))
	for i, o := range orders {
		codes[i] = o.Code
	}
	return nextCode(entities.GenericOrderPrefix, now, codes), nil
}

func (s *Orders) Create(ctx context.Context, actor *entities.User, req dto.CreateOrderRequest) (*entities.Order, error) {
	now := s.now()
	attachments, err := buildAttachments(req.Attachments, actor.ID, now)
	if err != nil {
		return nil, err
	}

	var order *entities.Order
	err = s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		svc, err := tx.Services().Get(req.ServiceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown service %s", entities.ErrValidation, req.ServiceID)
		}
		if err != nil {
			return err
		}
		code, err := s.nextCode(tx, now)
		if err != nil {
			return err
		}
		order, err = entities.NewOrder(code, svc, actor, req.Priority, req.FieldValues, now)
		if err != nil {
			return err
		}
		if dept := strings.TrimSpace(req.Department); dept != "" {
			order.Department = dept
		}
		order.Attachments = attachments

		policy, err := s.policy(tx)
		if err != nil {
			return err
		}
		if policy.Requires(svc) {
			order.RequireApproval()
		}
		if err := tx.Orders().Put(order); err != nil {
			return err
		}
		if err := s.notifyStaff(tx, ob, entities.KindGeneral, order.ID, order.Code); err != nil {
			return err
		}
		ob.add(events.NewOrderCreatedEvent(entities.KindGeneral, order.ID, order.Code, actor.ID, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// mutate loads a visible order, applies fn and saves it. fn reports the
// previous status so a status change event can be emitted.
func (s *Orders) mutate(ctx context.Context, actor *entities.User, id string,
	fn func(tx repositories.Tx, ob *outbox, o *entities.Order) error) (*entities.Order, error) {
	var order *entities.Order
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		o, err := tx.Orders().Get(id)
		if err != nil {
			return err
		}
		if !o.VisibleTo(actor) {
			return notFoundf("order %s", id)
		}
		from := o.Status
		if err := fn(tx, ob, o); err != nil {
			return err
		}
		if err := tx.Orders().Put(o); err != nil {
			return err
		}
		if o.Status != from {
			ob.add(events.NewOrderStatusChangedEvent(entities.KindGeneral, o.ID, o.Code,
				string(from), string(o.Status), actor.ID, lastNote(o.History), s.now()))
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func lastNote(history []entities.StatusChange) string {
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Note
}

func (s *Orders) Submit(ctx context.Context, actor *entities.User, id string) (*entities.Order, error) {
	return s.mutate(ctx, actor, id, func(_ repositories.Tx, _ *outbox, o *entities.Order) error {
		if o.RequesterID != actor.ID {
			return forbiddenf("only the requester can submit order %s", o.Code)
		}
		return o.Submit(actor.ID, s.now())
	})
}

func (s *Orders) Approve(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.Order, error) {
	return s.decide(ctx, actor, id, true, in.Comment)
}

func (s *Orders) Reject(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.Order, error) {
	return s.decide(ctx, actor, id, false, in.Comment)
}

func (s *Orders) decide(ctx context.Context, actor *entities.User, id string, approve bool, comment string) (*entities.Order, error) {
	if !actor.IsApprover() && !actor.IsAdmin() {
		return nil, forbiddenf("only approvers can decide on orders")
	}
	return s.mutate(ctx, actor, id, func(tx repositories.Tx, ob *outbox, o *entities.Order) error {
		if err := o.Decide(actor.ID, approve, comment, s.now()); err != nil {
			return err
		}
		verb := "approved"
		if !approve {
			verb = "rejected"
		}
		_, err := s.notify(tx, ob, o.RequesterID, wantsOrderUpdates, entities.NotifyApproval,
			"Request "+verb,
			fmt.Sprintf("Your request %s was %s", o.Code, verb),
			orderData(entities.KindGeneral, o.ID, o.Code, "status", string(o.Status)))
		return err
	})
}

func (s *Orders) UpdateStatus(ctx context.Context, actor *entities.User, id string, in dto.StatusUpdate) (*entities.Order, error) {
	if !actor.IsAdmin() && !actor.IsApprover() {
		return nil, forbiddenf("only staff can update order status")
	}
	return s.mutate(ctx, actor, id, func(tx repositories.Tx, ob *outbox, o *entities.Order) error {
		changed, err := o.SetStatus(entities.OrderStatus(in.Status), in.Note, actor.ID, s.now())
		if err != nil || !changed {
			return err
		}
		return s.notifyRequester(tx, ob, o.RequesterID, entities.KindGeneral, o.ID, o.Code, string(o.Status))
	})
}

func (s *Orders) Attach(ctx context.Context, actor *entities.User, id string, in dto.AttachmentInput) (*entities.Order, error) {
	now := s.now()
	a, err := entities.NewAttachment(in.Type, in.Name, in.LinkURL, in.SizeBytes, actor.ID, now)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, func(_ repositories.Tx, _ *outbox, o *entities.Order) error {
		o.Attach(a, now)
		return nil
	})
}

func (s *Orders) Get(ctx context.Context, actor *entities.User, id string) (*entities.Order, error) {
	var order *entities.Order
	err := s.view(ctx, func(tx repositories.Tx) error {
		o, err := tx.Orders().Get(id)
		if err != nil {
			return err
		}
		if !o.VisibleTo(actor) {
			return notFoundf("order %s", id)
		}
		order = o
		return nil
	})
	return order, err
}

func (s *Orders) List(ctx context.Context, actor *entities.User, f dto.OrderFilter) ([]*entities.Order, error) {
	var orders []*entities.Order
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		orders, err = tx.Orders().List(func(o *entities.Order) bool {
			return o.VisibleTo(actor) &&
				(f.Status == "" || string(o.Status) == f.Status) &&
				(f.Priority == "" || string(o.Priority) == f.Priority) &&
				(f.ServiceID == "" || o.ServiceID == f.ServiceID)
		})
		return err
	})
	sortNewestFirst(orders, func(o *entities.Order) time.Time { return o.SubmittedAt })
	return orders, err
}

// Stats counts the orders visible to actor
func (s *Orders) Stats(ctx context.Context, actor *entities.User) (entities.OrderStats, error) {
	orders, err := s.List(ctx, actor, dto.OrderFilter{})
	if err != nil {
		return entities.OrderStats{}, err
	}
	return entities.ComputeOrderStats(orders), nil
}
