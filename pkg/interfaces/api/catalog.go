package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

type approvalRequest struct {
	RequiresApproval bool `json:"requires_approval"`
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.Catalog.ListServices(r.Context(), actor)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	svc, err := s.svc.Catalog.GetService(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, svc)
	return nil
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ServiceInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	svc, err := s.svc.Catalog.CreateService(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, svc)
	return nil
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ServiceInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	svc, err := s.svc.Catalog.UpdateService(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, svc)
	return nil
}

func (s *Server) updateServiceSettings(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.ServiceSettings
	if err := decode(w, r, &in); err != nil {
		return err
	}
	svc, err := s.svc.Catalog.UpdateServiceSettings(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, svc)
	return nil
}

func (s *Server) updateServiceApproval(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in approvalRequest
	if err := decode(w, r, &in); err != nil {
		return err
	}
	svc, err := s.svc.Catalog.UpdateApproval(r.Context(), actor, chi.URLParam(r, "id"), in.RequiresApproval)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, svc)
	return nil
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.Catalog.DeleteService(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) addField(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.FieldInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	field, err := s.svc.Catalog.AddField(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, field)
	return nil
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.FieldSettings
	if err := decode(w, r, &in); err != nil {
		return err
	}
	field, err := s.svc.Catalog.UpdateFieldSettings(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "field"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, field)
	return nil
}

func (s *Server) listPricing(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	rows, err := s.svc.Catalog.ListPricing(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rows)
	return nil
}

func (s *Server) createPricing(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.PricingInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	p, err := s.svc.Catalog.CreatePricing(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, p)
	return nil
}

func (s *Server) updatePricing(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.PricingInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	p, err := s.svc.Catalog.UpdatePricing(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

func (s *Server) deletePricing(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.Catalog.DeletePricing(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
