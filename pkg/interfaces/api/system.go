package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	list, err := s.svc.System.ListSettings(r.Context(), actor)
	return respond(w, http.StatusOK, list, err)
}

func (s *Server) getSetting(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	setting, err := s.svc.System.GetSetting(r.Context(), actor, chi.URLParam(r, "key"))
	return respond(w, http.StatusOK, setting, err)
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.SettingInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	setting, err := s.svc.System.PutSetting(r.Context(), actor, in)
	return respond(w, http.StatusOK, setting, err)
}

func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if err := s.svc.System.DeleteSetting(r.Context(), actor, chi.URLParam(r, "key")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request, _ *entities.User) error {
	p, err := s.svc.System.Policy(r.Context())
	return respond(w, http.StatusOK, p, err)
}

func (s *Server) updatePolicy(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	var in dto.PolicyInput
	if err := decode(w, r, &in); err != nil {
		return err
	}
	p, err := s.svc.System.UpdatePolicy(r.Context(), actor, in)
	return respond(w, http.StatusOK, p, err)
}

func (s *Server) auditLogs(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	q := r.URL.Query()
	logs, err := s.svc.System.AuditLogs(r.Context(), actor, dto.AuditFilter{
		Action:  q.Get("action"),
		ActorID: q.Get("actor_id"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
	})
	return respond(w, http.StatusOK, logs, err)
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	o, err := s.svc.System.Overview(r.Context(), actor)
	return respond(w, http.StatusOK, o, err)
}

func (s *Server) eventHistory(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	from, err := queryInt(r, "from", 1)
	if err != nil {
		return err
	}
	rows, err := s.svc.System.EventHistory(r.Context(), actor, chi.URLParam(r, "stream"), from)
	return respond(w, http.StatusOK, rows, err)
}

// runJob triggers one periodic check immediately
func (s *Server) runJob(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can run jobs", services.ErrForbidden)
	}
	res, err := s.svc.Maintenance.Run(r.Context(), chi.URLParam(r, "name"))
	if err == nil {
		s.logger.Info().Str("job", res.Job).Str("actor", actor.Email).
			Int("processed", res.Processed).Int("notified", res.Notified).Msg("job run on demand")
	}
	return respond(w, http.StatusOK, res, err)
}

func (s *Server) ordersReport(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	q := r.URL.Query()
	rep, err := s.svc.Reports.Orders(r.Context(), actor, dto.OrderReportFilter{
		EntityID:        q.Get("entity"),
		CollegeID:       q.Get("college"),
		ViceRectorateID: q.Get("vice_rectorate"),
		Start:           q.Get("start"),
		End:             q.Get("end"),
		Type:            entities.OrderKind(q.Get("type")),
	})
	return respond(w, http.StatusOK, rep, err)
}

func (s *Server) productivityReport(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	rep, err := s.svc.Reports.Productivity(r.Context(), actor, r.URL.Query().Get("date"))
	return respond(w, http.StatusOK, rep, err)
}

func (s *Server) inventoryReport(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	rep, err := s.svc.Reports.Inventory(r.Context(), actor)
	return respond(w, http.StatusOK, rep, err)
}

func (s *Server) roiReport(w http.ResponseWriter, r *http.Request, actor *entities.User) error {
	rep, err := s.svc.Reports.ROI(r.Context(), actor)
	return respond(w, http.StatusOK, rep, err)
}
