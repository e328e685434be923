package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

// adjustResponse carries the item after the movement and its ledger entry
type adjustResponse struct {
	Item *entities.InventoryItem `json:"item"`
	Log  *entities.InventoryLog  `json:"log"`
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	low, err := queryBool(r, "low_stock")
	if err != nil {
		return err
	}
	q := r.URL.Query()
	f := dto.ItemFilter{Category: entities.ItemCategory(q.Get("category")), Search: q.Get("search")}
	if low != nil {
		f.LowStock = *low
	}
	items, err := s.svc.Inventory.ListItems(r.Context(), actor, f)
	return respond(w, http.StatusOK, items, err)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ItemInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	item, err := s.svc.Inventory.CreateItem(r.Context(), actor, in)
	return respond(w, http.StatusCreated, item, err)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	item, err := s.svc.Inventory.GetItem(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, item, err)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ItemInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	item, err := s.svc.Inventory.UpdateItem(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, item, err)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.Inventory.DeleteItem(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) adjustItem(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.AdjustRequest
	if err := decode(w, r, &in); err != nil {
		return err
	}
	item, entry, err := s.svc.Inventory.Adjust(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, adjustResponse{Item: item, Log: entry}, err)
}

func (s *Server) itemLogs(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	logs, err := s.svc.Inventory.Logs(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, logs, err)
}

func (s *Server) listReorders(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Inventory.ListReorders(r.Context(), actor, entities.ReorderStatus(r.URL.Query().Get("status")))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createReorder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ReorderInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	req, err := s.svc.Inventory.CreateReorder(r.Context(), actor, in)
	return respond(w, http.StatusCreated, req, err)
}

func (s *Server) approveReorder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	req, err := s.svc.Inventory.ApproveReorder(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, req, err)
}

func (s *Server) receiveReorder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	req, err := s.svc.Inventory.ReceiveReorder(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, req, err)
}

func (s *Server) cancelReorder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	req, err := s.svc.Inventory.CancelReorder(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, req, err)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	unread, err := queryBool(r, "unread")
	if err != nil {
		return err
	}
	list, err := s.svc.Notifications.List(r.Context(), actor, unread != nil && *unread)
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	count, err := s.svc.Notifications.UnreadCount(r.Context(), actor)
	return respond(w, http.StatusOK, count, err)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	n, err := s.svc.Notifications.MarkRead(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, n, err)
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	n, err := s.svc.Notifications.MarkAllAsRead(r.Context(), actor)
	return respond(w, http.StatusOK, map[string]int{"updated": n}, err)
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	p, err := s.svc.Notifications.GetPreferences(r.Context(), actor)
	return respond(w, http.StatusOK, p, err)
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.PreferenceUpdate
	if err := decode(w, r, &in); err != nil {
		return err
	}
	p, err := s.svc.Notifications.UpdatePreferences(r.Context(), actor, in)
	return respond(w, http.StatusOK, p, err)
}
