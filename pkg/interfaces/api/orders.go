package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/interfaces/cli/output"
)

type quantityRequest struct {
	ActualQuantity int `json:"actual_quantity"`
}

func orderFilter(r *http.Request) dto.OrderFilter {
	q := r.URL.Query()
	return dto.OrderFilter{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		ServiceID: q.Get("service_id"),
	}
}

// respond writes v as JSON unless err is set
func respond(w http.ResponseWriter, status int, v interface{}, err error) error {
	if err != nil {
		return err
	}
	writeJSON(w, status, v)
	return nil
}

// generic service orders

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Orders.List(r.Context(), actor, orderFilter(r))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var req dto.CreateOrderRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	o, err := s.svc.Orders.Create(r.Context(), actor, req)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) orderStats(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	stats, err := s.svc.Orders.Stats(r.Context(), actor)
	return respond(w, http.StatusOK, stats, err)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Orders.Get(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Orders.Submit(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) approveOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Orders.Approve(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) rejectOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Orders.Reject(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.StatusUpdate
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Orders.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) attachOrder(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.AttachmentInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Orders.Attach(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) orderReceipt(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Orders.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	// the order is visible, so its service and requester may be shown even
	// when the caller could not read them directly
	service, err := s.svc.Catalog.GetService(r.Context(), services.SystemActor(), o.ServiceID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order", o.Code).Msg("receipt without service details")
		service = nil
	}
	receipt := output.OrderReceipt(o, service, s.requesterName(r.Context(), o.RequesterID), s.now())
	return s.writeReceipt(w, receipt)
}

// design orders

func (s *Server) listDesigns(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Designs.List(r.Context(), actor, orderFilter(r))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var req dto.CreateDesignOrderRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	o, err := s.svc.Designs.Create(r.Context(), actor, req)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) getDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Designs.Get(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) approveDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Designs.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) rejectDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Designs.Reject(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) returnDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Designs.ReturnToRequester(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) readyDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Designs.MarkReadyForConfirm(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) confirmDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Designs.Confirm(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) updateDesignStatus(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.StatusUpdate
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Designs.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) attachDesign(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.AttachmentInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Designs.Attach(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) designReceipt(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Designs.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return s.writeReceipt(w, output.DesignReceipt(o, s.requesterName(r.Context(), o.RequesterID), s.now()))
}

// print orders

func (s *Server) listPrints(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Prints.List(r.Context(), actor, orderFilter(r))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var req dto.CreatePrintOrderRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	o, err := s.svc.Prints.Create(r.Context(), actor, req)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) getPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.Get(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) approvePrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) rejectPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Prints.Reject(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) cancelPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) recordActualQuantity(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in quantityRequest
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Prints.RecordActualQuantity(r.Context(), actor, chi.URLParam(r, "id"), in.ActualQuantity)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) confirmPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.Confirm(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) scheduleDelivery(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.ScheduleDelivery(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) updatePrintStatus(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.StatusUpdate
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Prints.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) attachPrint(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.AttachmentInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	o, err := s.svc.Prints.Attach(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusCreated, o, err)
}

func (s *Server) printReceipt(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.Prints.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return s.writeReceipt(w, output.PrintReceipt(o, s.requesterName(r.Context(), o.RequesterID), s.now()))
}

func (s *Server) requesterName(ctx context.Context, id string) string {
	user, err := s.svc.Accounts.GetUser(ctx, services.SystemActor(), id)
	if err != nil {
		return id
	}
	return user.DisplayName()
}

// writeReceipt renders into a buffer first so a template failure still
// produces a clean error response
func (s *Server) writeReceipt(w http.ResponseWriter, receipt *output.Receipt) error {
	var buf bytes.Buffer
	if err := output.RenderReceipt(&buf, receipt); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+output.ReceiptFilename(receipt.Code)+`"`)
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	if err != nil {
		s.logger.Debug().Err(err).Str("order", receipt.Code).Msg("receipt write aborted")
	}
	return nil
}
