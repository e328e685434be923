package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func (s *Server) listTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	q := r.URL.Query()
	list, err := s.svc.Training.List(r.Context(), actor, entities.TrainingStatus(q.Get("status")), q.Get("search"))
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) createTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in entities.TrainingRequestInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	t, err := s.svc.Training.Create(r.Context(), actor, in)
	return respond(w, http.StatusCreated, t, err)
}

func (s *Server) getTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	t, err := s.svc.Training.Get(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, t, err)
}

func (s *Server) approveTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	t, err := s.svc.Training.Approve(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, t, err)
}

func (s *Server) rejectTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.DecisionInput
	if err := decodeOptional(w, r, &in); err != nil {
		return err
	}
	t, err := s.svc.Training.Reject(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusOK, t, err)
}

func (s *Server) startTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	t, err := s.svc.Training.Start(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, t, err)
}

func (s *Server) completeTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	t, err := s.svc.Training.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, t, err)
}

func (s *Server) evaluateTraining(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.EvaluationInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	ev, err := s.svc.Training.Evaluate(r.Context(), actor, chi.URLParam(r, "id"), in)
	return respond(w, http.StatusCreated, ev, err)
}

func (s *Server) listEvaluations(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Training.Evaluations(r.Context(), actor, chi.URLParam(r, "id"))
	return respond(w, http.StatusOK, list, err)
}
