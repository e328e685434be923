package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// Training handles cooperative-training applications and evaluations
type Training struct {
	*core
}

func requireSupervisor(actor *entities.User) error {
	if !actor.IsTrainingSupervisor() && !actor.IsSuperuser {
		return forbiddenf("training supervisor role required")
	}
	return nil
}

func (s *Training) Create(ctx context.Context, actor *entities.User, in entities.TrainingRequestInput) (*entities.TrainingRequest, error) {
	t, err := entities.NewTrainingRequest(actor, in, s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.TrainingRequests().Put(t)
	})
	return t, err
}

func (s *Training) visible(tx repositories.Tx, actor *entities.User, id string) (*entities.TrainingRequest, error) {
	t, err := tx.TrainingRequests().Get(id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(actor) {
		return nil, notFoundf("training request %s", id)
	}
	return t, nil
}

func (s *Training) Get(ctx context.Context, actor *entities.User, id string) (*entities.TrainingRequest, error) {
	var t *entities.TrainingRequest
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		t, err = s.visible(tx, actor, id)
		return err
	})
	return t, err
}

func (s *Training) List(ctx context.Context, actor *entities.User, status entities.TrainingStatus, search string) ([]*entities.TrainingRequest, error) {
	var rows []*entities.TrainingRequest
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.TrainingRequests().List(func(t *entities.TrainingRequest) bool {
			return t.VisibleTo(actor) &&
				(status == "" || t.Status == status) &&
				matchesText(search, t.TraineeName, t.TraineeID, t.University, t.Major)
		})
		return err
	})
	sortNewestFirst(rows, func(t *entities.TrainingRequest) time.Time { return t.SubmittedAt })
	return rows, err
}

func (s *Training) transition(ctx context.Context, actor *entities.User, id string, fn func(*entities.TrainingRequest) error) (*entities.TrainingRequest, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	var t *entities.TrainingRequest
	err := s.update(ctx, func(tx repositories.Tx, ob *outbox) error {
		var err error
		t, err = s.visible(tx, actor, id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := tx.TrainingRequests().Put(t); err != nil {
			return err
		}
		_, err = s.notify(tx, ob, t.RequesterID, wantsOrderUpdates, entities.NotifyOrderStatus,
			"Training request updated",
			"The training request for "+t.TraineeName+" is now "+strings.ReplaceAll(string(t.Status), "_", " "),
			map[string]interface{}{"training_request_id": t.ID, "status": string(t.Status)})
		return err
	})
	return t, err
}

func (s *Training) Approve(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.TrainingRequest, error) {
	return s.transition(ctx, actor, id, func(t *entities.TrainingRequest) error {
		return t.Approve(actor.ID, in.Comment, s.now())
	})
}

func (s *Training) Reject(ctx context.Context, actor *entities.User, id string, in dto.DecisionInput) (*entities.TrainingRequest, error) {
	return s.transition(ctx, actor, id, func(t *entities.TrainingRequest) error {
		return t.Reject(actor.ID, in.Comment, s.now())
	})
}

func (s *Training) Start(ctx context.Context, actor *entities.User, id string) (*entities.TrainingRequest, error) {
	return s.transition(ctx, actor, id, func(t *entities.TrainingRequest) error {
		return t.Start(s.now())
	})
}

func (s *Training) Complete(ctx context.Context, actor *entities.User, id string) (*entities.TrainingRequest, error) {
	return s.transition(ctx, actor, id, func(t *entities.TrainingRequest) error {
		return t.Complete(s.now())
	})
}

// Evaluate scores a trainee; one evaluation per request, type and week
func (s *Training) Evaluate(ctx context.Context, actor *entities.User, requestID string, in dto.EvaluationInput) (*entities.TrainingEvaluation, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	e, err := entities.NewTrainingEvaluation(requestID, in.Type, in.WeekNumber,
		in.AttendanceScore, in.PerformanceScore, in.BehaviorScore, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	e.Comments = strings.TrimSpace(in.Comments)
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if _, err := s.visible(tx, actor, requestID); err != nil {
			return err
		}
		dup, err := repositories.Exists(tx.TrainingEvaluations(), e.SameSlot)
		if err != nil {
			return err
		}
		if dup {
			return conflictf("a %s evaluation for week %d already exists", e.Type, e.WeekNumber)
		}
		return tx.TrainingEvaluations().Put(e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Evaluations lists a request's evaluations, weekly by week then final
func (s *Training) Evaluations(ctx context.Context, actor *entities.User, requestID string) ([]*entities.TrainingEvaluation, error) {
	var rows []*entities.TrainingEvaluation
	err := s.view(ctx, func(tx repositories.Tx) error {
		if _, err := s.visible(tx, actor, requestID); err != nil {
			return err
		}
		var err error
		rows, err = tx.TrainingEvaluations().List(func(e *entities.TrainingEvaluation) bool {
			return e.TrainingRequestID == requestID
		})
		return err
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type == entities.EvaluationWeekly
		}
		return rows[i].WeekNumber < rows[j].WeekNumber
	})
	return rows, err
}
