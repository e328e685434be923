package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func (s *Server) listVisitRequests(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Visits.ListRequests(r.Context(), actor, entities.VisitStatus(r.URL.Query().Get("status")))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createVisitRequest(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in entities.VisitRequestInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	v, err := s.svc.Visits.CreateRequest(r.Context(), actor, in)
	return respond(w, http.StatusCreated, v, err)
}

func (s *Server) getVisitRequest(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	v, err := s.svc.Visits.GetRequest(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, v, err)
}

type visitDecisionFunc func(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.VisitRequest, error)

// decideVisit decodes an optional comment and applies fn to the request in the path
func decideVisit(w http.ResponseWriter, r *http.Request, actor *entities.User, fn visitDecisionFunc) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	v, err := fn(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, v, err)
}

func (s *Server) approveVisit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	return decideVisit(w, r, actor, s.svc.Visits.Approve)
}

func (s *Server) clearVisitSecurity(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	return decideVisit(w, r, actor, s.svc.Visits.ClearSecurity)
}

func (s *Server) rejectVisit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	return decideVisit(w, r, actor, s.svc.Visits.Reject)
}

func (s *Server) postponeVisit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.PostponeInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	v, err := s.svc.Visits.Postpone(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, v, err)
}

func (s *Server) cancelVisit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	v, err := s.svc.Visits.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, v, err)
}

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	q := r.URL.Query()
	list, err := s.svc.Visits.ListSchedules(r.Context(), q.Get("start"), q.Get("end"))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ScheduleInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	sched, err := s.svc.Visits.CreateSchedule(r.Context(), actor, in)
	return respond(w, http.StatusCreated, sched, err)
}

func (s *Server) updateSchedule(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ScheduleInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	sched, err := s.svc.Visits.UpdateSchedule(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, sched, err)
}

func (s *Server) deleteSchedule(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.Visits.DeleteSchedule(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) availableSlots(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	q := r.URL.Query()
	slots, err := s.svc.Visits.Available(r.Context(), q.Get("date"), entities.VisitType(q.Get("visit_type")))
	return respond(w, http.StatusOK, map[string]interface{}{"date": q.Get("date"), "slots": slots}, err)
}

func (s *Server) availableDates(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	q := r.URL.Query()
	dates, err := s.svc.Visits.AvailableDates(r.Context(), entities.VisitType(q.Get("visit_type")), q.Get("start"), q.Get("end"))
	return respond(w, http.StatusOK, dates, err)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Visits.ListBookings(r.Context(), actor, entities.BookingStatus(r.URL.Query().Get("status")))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) book(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.BookingInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	b, err := s.svc.Visits.Book(r.Context(), actor, in)
	return respond(w, http.StatusCreated, b, err)
}

func (s *Server) confirmBooking(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	b, err := s.svc.Visits.ConfirmBooking(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, b, err)
}

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	b, err := s.svc.Visits.CheckIn(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, b, err)
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	b, err := s.svc.Visits.CancelBooking(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, b, err)
}
