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

// Inventory manages stock items, movements and reorder requests
type Inventory struct {
	*core
}

func requireInventory(actor *entities.User) error {
	if !actor.IsAdmin() && !actor.HasRole(entities.RoleInventory) {
		return forbiddenf("inventory access requires an admin or inventory role")
	}
	return nil
}

func itemTaken(tx repositories.Tx, name, sku, exceptID string) error {
	dup, err := repositories.First(tx.InventoryItems(), func(it *entities.InventoryItem) bool {
		return it.ID != exceptID && (strings.EqualFold(it.Name, name) || strings.EqualFold(it.SKU, sku))
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.EqualFold(dup.SKU, sku) {
		return conflictf("an item with sku %q already exists", sku)
	}
	return conflictf("an item named %q already exists", name)
}

func applyItemInput(it *entities.InventoryItem, in dto.ItemInput) error {
	it.MinimumThreshold = in.MinimumThreshold
	it.MinQuantity = in.MinQuantity
	if in.MaximumThreshold > 0 {
		it.MaximumThreshold = in.MaximumThreshold
	}
	it.ReorderPoint = in.ReorderPoint
	it.Notes = strings.TrimSpace(in.Notes)
	return it.Validate()
}

func (s *Inventory) CreateItem(ctx context.Context, actor *entities.User, in dto.ItemInput) (*entities.InventoryItem, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	item, err := entities.NewInventoryItem(in.Name, in.SKU, in.Category, in.Unit, in.CurrentQuantity, s.now())
	if err != nil {
		return nil, err
	}
	if err := applyItemInput(item, in); err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if err := itemTaken(tx, item.Name, item.SKU, ""); err != nil {
			return err
		}
		return tx.InventoryItems().Put(item)
	})
	return item, err
}

// UpdateItem changes an item's details. The quantity only moves through Adjust.
func (s *Inventory) UpdateItem(ctx context.Context, actor *entities.User, id string, in dto.ItemInput) (*entities.InventoryItem, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var item *entities.InventoryItem
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		item, err = tx.InventoryItems().Get(id)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			item.Name = name
		}
		if sku := strings.TrimSpace(in.SKU); sku != "" {
			item.SKU = sku
		}
		if in.Category != "" {
			item.Category = in.Category
		}
		if in.Unit != "" {
			item.Unit = in.Unit
		}
		if err := itemTaken(tx, item.Name, item.SKU, item.ID); err != nil {
			return err
		}
		if err := applyItemInput(item, in); err != nil {
			return err
		}
		item.UpdatedAt = s.now()
		return tx.InventoryItems().Put(item)
	})
	return item, err
}

func (s *Inventory) DeleteItem(ctx context.Context, actor *entities.User, id string) error {
	if err := requireInventory(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.InventoryItems().Delete(id)
	})
}

func (s *Inventory) GetItem(ctx context.Context, actor *entities.User, id string) (*entities.InventoryItem, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var item *entities.InventoryItem
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		item, err = tx.InventoryItems().Get(id)
		return err
	})
	return item, err
}

// ListItems returns items in name order
func (s *Inventory) ListItems(ctx context.Context, actor *entities.User, f dto.ItemFilter) ([]*entities.InventoryItem, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var items []*entities.InventoryItem
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		items, err = tx.InventoryItems().List(func(it *entities.InventoryItem) bool {
			return (f.Category == "" || it.Category == f.Category) &&
				(!f.LowStock || it.IsLowStock()) &&
				matchesText(f.Search, it.Name, it.SKU)
		})
		return err
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, err
}

// Adjust moves stock by hand and logs the movement
func (s *Inventory) Adjust(ctx context.Context, actor *entities.User, id string, req dto.AdjustRequest) (*entities.InventoryItem, *entities.InventoryLog, error) {
	if err := requireInventory(actor); err != nil {
		return nil, nil, err
	}
	var item *entities.InventoryItem
	var entry *entities.InventoryLog
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		var err error
		item, err = tx.InventoryItems().Get(id)
		if err != nil {
			return err
		}
		entry, err = item.Apply(req.Operation, req.Quantity, req.Reference, req.Note, actor.ID, s.now())
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
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return item, entry, nil
}

// Logs lists movements newest first, for one item or all when itemID is empty
func (s *Inventory) Logs(ctx context.Context, actor *entities.User, itemID string) ([]*entities.InventoryLog, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var logs []*entities.InventoryLog
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		logs, err = tx.InventoryLogs().List(func(l *entities.InventoryLog) bool {
			return itemID == "" || l.ItemID == itemID
		})
		return err
	})
	sortNewestFirst(logs, func(l *entities.InventoryLog) time.Time { return l.CreatedAt })
	return logs, err
}

func (s *Inventory) CreateReorder(ctx context.Context, actor *entities.User, in dto.ReorderInput) (*entities.ReorderRequest, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	r, err := entities.NewReorderRequest(in.ItemID, in.Quantity, actor.ID, strings.TrimSpace(in.Notes), s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if _, err := tx.InventoryItems().Get(in.ItemID); err != nil {
			return err
		}
		return tx.ReorderRequests().Put(r)
	})
	return r, err
}

func (s *Inventory) reorder(ctx context.Context, actor *entities.User, id string,
	fn func(repositories.Tx, *outbox, *entities.ReorderRequest) error) (*entities.ReorderRequest, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var r *entities.ReorderRequest
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		var err error
		r, err = tx.ReorderRequests().Get(id)
		if err != nil {
			return err
		}
		if err := fn(tx, ob, r); err != nil {
			return err
		}
		return tx.ReorderRequests().Put(r)
	})
	return r, err
}

func (s *Inventory) ApproveReorder(ctx context.Context, actor *entities.User, id string) (*entities.ReorderRequest, error) {
	return s.reorder(ctx, actor, id, func(_ repositories.Tx, _ *outbox, r *entities.ReorderRequest) error {
		return r.Approve(actor.ID, s.now())
	})
}

// ReceiveReorder closes an ordered request and restocks its item
func (s *Inventory) ReceiveReorder(ctx context.Context, actor *entities.User, id string) (*entities.ReorderRequest, error) {
	return s.reorder(ctx, actor, id, func(tx repositories.Tx, ob *outbox, r *entities.ReorderRequest) error {
		item, err := tx.InventoryItems().Get(r.ItemID)
		if err != nil {
			return err
		}
		entry, err := r.Receive(item, actor.ID, s.now())
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
		return nil
	})
}

func (s *Inventory) CancelReorder(ctx context.Context, actor *entities.User, id string) (*entities.ReorderRequest, error) {
	return s.reorder(ctx, actor, id, func(_ repositories.Tx, _ *outbox, r *entities.ReorderRequest) error {
		return r.Cancel()
	})
}

func (s *Inventory) ListReorders(ctx context.Context, actor *entities.User, status entities.ReorderStatus) ([]*entities.ReorderRequest, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	var rows []*entities.ReorderRequest
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.ReorderRequests().List(func(r *entities.ReorderRequest) bool {
			return status == "" || r.Status == status
		})
		return err
	})
	sortNewestFirst(rows, func(r *entities.ReorderRequest) time.Time { return r.RequestedAt })
	return rows, err
}

// Import upserts items by sku in one transaction. Existing items take the
// imported details and thresholds; their quantity is set through an adjust
// movement so the change is logged.
func (s *Inventory) Import(ctx context.Context, actor *entities.User, inputs []dto.ItemInput) (*dto.ImportResult, error) {
	if err := requireInventory(actor); err != nil {
		return nil, err
	}
	result := &dto.ImportResult{}
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		*result = dto.ImportResult{}
		now := s.now()
		for _, in := range inputs {
			existing, err := repositories.First(tx.InventoryItems(), func(it *entities.InventoryItem) bool {
				return strings.EqualFold(it.SKU, strings.TrimSpace(in.SKU))
			})
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				item, err := entities.NewInventoryItem(in.Name, in.SKU, in.Category, in.Unit, in.CurrentQuantity, now)
				if err != nil {
					return err
				}
				if err := applyItemInput(item, in); err != nil {
					return err
				}
				if err := itemTaken(tx, item.Name, item.SKU, ""); err != nil {
					return err
				}
				if err := tx.InventoryItems().Put(item); err != nil {
					return err
				}
				result.Created++
			case err != nil:
				return err
			default:
				if name := strings.TrimSpace(in.Name); name != "" {
					existing.Name = name
				}
				if in.Category != "" {
					existing.Category = in.Category
				}
				if in.Unit != "" {
					existing.Unit = in.Unit
				}
				if err := applyItemInput(existing, in); err != nil {
					return err
				}
				if err := itemTaken(tx, existing.Name, existing.SKU, existing.ID); err != nil {
					return err
				}
				if existing.CurrentQuantity != in.CurrentQuantity {
					entry, err := existing.Apply(entities.OpAdjust, in.CurrentQuantity, "", "csv import", actor.ID, now)
					if err != nil {
						return err
					}
					if err := tx.InventoryLogs().Put(entry); err != nil {
						return err
					}
					ob.add(events.NewInventoryEvent(existing, entry))
				}
				existing.UpdatedAt = now
				if err := tx.InventoryItems().Put(existing); err != nil {
					return err
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
