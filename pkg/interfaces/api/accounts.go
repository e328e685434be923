package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	res, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	res, err := s.svc.Accounts.Refresh(r.Context(), req.Refresh)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	user, err := s.svc.Accounts.Me(r.Context(), actor)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var req passwordRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	if err := s.svc.Accounts.ChangePassword(r.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	active, err := queryBool(r, "active")
	if err != nil {
		return err
	}
	q := r.URL.Query()
	users, err := s.svc.Accounts.ListUsers(r.Context(), actor, dto.UserFilter{
		Role:   entities.Role(q.Get("role")),
		Active: active,
		Search: q.Get("search"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.UserInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	user, err := s.svc.Accounts.CreateUser(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, user)
	return nil
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	user, err := s.svc.Accounts.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.UserUpdate
	if err := decode(w, r, &in); err != nil {
		return err
	}
	user, err := s.svc.Accounts.UpdateUser(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.Accounts.Deactivate(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listOrgUnits(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	active, err := queryBool(r, "active")
	if err != nil {
		return err
	}
	q := r.URL.Query()
	units, err := s.svc.OrgUnits.List(r.Context(), dto.OrgUnitFilter{
		Level:    entities.OrgLevel(q.Get("level")),
		Active:   active,
		ParentID: q.Get("parent_id"),
		Search:   q.Get("search"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, units)
	return nil
}

// orgUnitView adds the computed full path to a unit
type orgUnitView struct {
	*entities.OrgUnit
	FullPath string `json:"full_path"`
}

func (s *Server) getOrgUnit(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	id := chi.URLParam(r, "id")
	unit, err := s.svc.OrgUnits.Get(r.Context(), id)
	if err != nil {
		return err
	}
	path, err := s.svc.OrgUnits.FullPath(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orgUnitView{OrgUnit: unit, FullPath: path})
	return nil
}

func (s *Server) orgTree(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	tree, err := s.svc.OrgUnits.Tree(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, tree)
	return nil
}

func (s *Server) orgChildren(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	units, err := s.svc.OrgUnits.Children(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, units)
	return nil
}

func (s *Server) orgHierarchy(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	units, err := s.svc.OrgUnits.Hierarchy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, units)
	return nil
}

func (s *Server) orgUnitsByLevel(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	units, err := s.svc.OrgUnits.ByLevel(r.Context(), actor, entities.OrgLevel(chi.URLParam(r, "level")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, units)
	return nil
}

func (s *Server) createOrgUnit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.OrgUnitInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	unit, err := s.svc.OrgUnits.Create(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, unit)
	return nil
}

func (s *Server) updateOrgUnit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.OrgUnitInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	unit, err := s.svc.OrgUnits.Update(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, unit)
	return nil
}

func (s *Server) deleteOrgUnit(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.OrgUnits.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
