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

// Prints handles print requests and their paper consumption
type Prints struct {
	*core
}

func (s *Prints) Create(ctx context.Context, actor *entities.User, req dto.CreatePrintOrderRequest) (*entities.PrintOrder, error) {
	now := s.now()
	attachments, err := buildAttachments(req.Attachments, actor.ID, now)
	if err != nil {
		return nil, err
	}
	in := entities.PrintOrderInput{
		PrintType:      req.PrintType,
		ProductionDept: req.ProductionDept,
		Size:           req.Size,
		CustomSize:     req.CustomSize,
		PaperType:      req.PaperType,
		PaperWeight:    req.PaperWeight,
		Quantity:       req.Quantity,
		Sides:          req.Sides,
		Pages:          req.Pages,
		DeliveryMethod: req.DeliveryMethod,
		Priority:       req.Priority,
		Attachments:    attachments,
	}

	var order *entities.PrintOrder
	err = s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		day := entities.OrderCodePrefix(entities.PrintOrderPrefix, now)
		existing, err := tx.PrintOrders().List(func(p *entities.PrintOrder) bool { return strings.HasPrefix(p.Code, day) })
		if err != nil {
			return err
		}
		codes := make([]string, len(existing))
		for i, p := range existing {
			codes[i] = p.Code
		}
		order, err = entities.NewPrintOrder(nextCode(entities.PrintOrderPrefix, now, codes), actor, in, now)
		if err != nil {
			return err
		}
		if err := tx.PrintOrders().Put(order); err != nil {
			return err
		}
		if err := s.notifyStaff(tx, ob, entities.KindPrint, order.ID, order.Code); err != nil {
			return err
		}
		ob.add(events.NewOrderCreatedEvent(entities.KindPrint, order.ID, order.Code, actor.ID, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// mutate mirrors Designs.mutate for print orders; fn also gets the
// transaction so it can move stock atomically with the order.
func (s *Prints) mutate(ctx context.Context, actor *entities.User, id string, notify bool,
	fn func(repositories.Tx, *outbox, *entities.PrintOrder) error) (*entities.PrintOrder, error) {
	var order *entities.PrintOrder
	var expired error
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		expired = nil
		p, err := tx.PrintOrders().Get(id)
		if err != nil {
			return err
		}
		if !p.VisibleTo(actor) {
			return notFoundf("print order %s", id)
		}
		from := p.Status
		if err := fn(tx, ob, p); err != nil {
			if !entities.IsExpired(err) {
				return err
			}
			expired = err
		}
		if err := tx.PrintOrders().Put(p); err != nil {
			return err
		}
		if p.Status != from {
			ob.add(events.NewOrderStatusChangedEvent(entities.KindPrint, p.ID, p.Code,
				string(from), string(p.Status), actor.ID, lastNote(p.History), s.now()))
			if notify {
				if err := s.notifyRequester(tx, ob, p.RequesterID, entities.KindPrint, p.ID, p.Code, string(p.Status)); err != nil {
					return err
				}
			}
		}
		order = p
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

func (s *Prints) Approve(ctx context.Context, actor *entities.User, id string) (*entities.PrintOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		return p.Approve(actor.ID, s.now())
	})
}

func (s *Prints) Reject(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.PrintOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		return p.Reject(actor.ID, in.Comment, s.now())
	})
}

func (s *Prints) Cancel(ctx context.Context, actor *entities.User, id string) (*entities.PrintOrder, error) {
	return s.mutate(ctx, actor, id, false, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		if p.RequesterID != actor.ID {
			return forbiddenf("only the requester can cancel print order %s", p.Code)
		}
		return p.Cancel(actor.ID, s.now())
	})
}

// RecordActualQuantity stores the produced quantity and draws the paper from
// stock in the same transaction. The order's deduction flag keeps the draw to
// a single one.
func (s *Prints) RecordActualQuantity(ctx context.Context, actor *entities.User, id string, qty int) (*entities.PrintOrder, error) {
	if !actor.IsDeptEmployee() && !actor.IsPrintManager() {
		return nil, forbiddenf("department employee role required")
	}
	return s.mutate(ctx, actor, id, true, func(tx repositories.Tx, ob *outbox, p *entities.PrintOrder) error {
		now := s.now()
		if err := p.RecordActualQuantity(qty, actor.ID, now); err != nil {
			return err
		}
		return s.deduct(tx, ob, actor, p, now)
	})
}

func (s *Prints) deduct(tx repositories.Tx, ob *outbox, actor *entities.User, p *entities.PrintOrder, now time.Time) error {
	if !p.NeedsDeduction() {
		return nil
	}
	paper, err := tx.InventoryItems().List(func(it *entities.InventoryItem) bool { return it.Category == entities.ItemPaper })
	if err != nil {
		return err
	}
	item := entities.SelectPaperItem(paper, p.PaperType, p.PaperWeight)
	if item == nil {
		s.logger.Warn().Str("order", p.Code).Msg("no paper stock to deduct from")
		return nil
	}
	entry, err := item.DeductForPrint(p, actor.ID, now)
	if err != nil {
		return err
	}
	if err := tx.InventoryItems().Put(item); err != nil {
		return err
	}
	if err := tx.InventoryLogs().Put(entry); err != nil {
		return err
	}
	ob.add(events.NewInventoryEvent(item, entry))
	s.logger.Info().
		Str("order", p.Code).
		Str("item", item.Name).
		Int("sheets", -entry.Quantity).
		Int("balance", entry.BalanceAfter).
		Msg("paper deducted")
	return nil
}

// Confirm moves the order to the warehouse. A late confirmation suspends the
// order and returns entities.ErrConfirmationExpired with the suspended order.
func (s *Prints) Confirm(ctx context.Context, actor *entities.User, id string) (*entities.PrintOrder, error) {
	return s.mutate(ctx, actor, id, false, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		if p.RequesterID != actor.ID {
			return forbiddenf("only the requester can confirm print order %s", p.Code)
		}
		return p.Confirm(actor.ID, s.now())
	})
}

func (s *Prints) ScheduleDelivery(ctx context.Context, actor *entities.User, id string) (*entities.PrintOrder, error) {
	return s.mutate(ctx, actor, id, true, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		if p.RequesterID != actor.ID && !actor.IsPrintManager() {
			return forbiddenf("only the requester or a print manager can schedule delivery")
		}
		return p.ScheduleDelivery(actor.ID, s.now())
	})
}

func (s *Prints) UpdateStatus(ctx context.Context, actor *entities.User, id string, in dto.StatusUpdate) (*entities.PrintOrder, error) {
	if err := requirePrintManager(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, true, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		return p.SetStatus(entities.PrintStatus(in.Status), in.Note, actor.ID, s.now())
	})
}

func (s *Prints) Attach(ctx context.Context, actor *entities.User, id string, in dto.AttachmentInput) (*entities.PrintOrder, error) {
	now := s.now()
	a, err := entities.NewAttachment(in.Type, in.Name, in.LinkURL, in.SizeBytes, actor.ID, now)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, false, func(_ repositories.Tx, _ *outbox, p *entities.PrintOrder) error {
		p.Attach(a, now)
		return nil
	})
}

func (s *Prints) Get(ctx context.Context, actor *entities.User, id string) (*entities.PrintOrder, error) {
	var order *entities.PrintOrder
	err := s.view(ctx, func(tx repositories.Tx) error {
		p, err := tx.PrintOrders().Get(id)
		if err != nil {
			return err
		}
		if !p.VisibleTo(actor) {
			return notFoundf("print order %s", id)
		}
		order = p
		return nil
	})
	return order, err
}

func (s *Prints) List(ctx context.Context, actor *entities.User, f dto.OrderFilter) ([]*entities.PrintOrder, error) {
	var orders []*entities.PrintOrder
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		orders, err = tx.PrintOrders().List(func(p *entities.PrintOrder) bool {
			return p.VisibleTo(actor) &&
				(f.Status == "" || string(p.Status) == f.Status) &&
				(f.Priority == "" || string(p.Priority) == f.Priority)
		})
		return err
	})
	sortNewestFirst(orders, func(p *entities.PrintOrder) time.Time { return p.SubmittedAt })
	return orders, err
}
