package entities

import (
	"strings"
	"time"
)

type TrainingStatus string

const (
	TrainingPending    TrainingStatus = "pending"
	TrainingApproved   TrainingStatus = "approved"
	TrainingRejected   TrainingStatus = "rejected"
	TrainingInProgress TrainingStatus = "in_progress"
	TrainingCompleted  TrainingStatus = "completed"
	TrainingCancelled  TrainingStatus = "cancelled"
)

// TrainingRequest is a cooperative-training application
type TrainingRequest struct {
	ID                string         `json:"id"`
	RequesterID       string         `json:"requester_id"`
	OrgUnitID         string         `json:"org_unit_id,omitempty"`
	TraineeName       string         `json:"trainee_name"`
	TraineeID         string         `json:"trainee_id"`
	TraineePhone      string         `json:"trainee_phone"`
	TraineeEmail      string         `json:"trainee_email"`
	University        string         `json:"university"`
	Major             string         `json:"major"`
	PeriodStart       Date           `json:"training_period_start"`
	PeriodEnd         Date           `json:"training_period_end"`
	Department        string         `json:"department"`
	Purpose           string         `json:"purpose"`
	Status            TrainingStatus `json:"status"`
	SupervisorID      string         `json:"supervisor_id,omitempty"`
	SupervisorComment string         `json:"supervisor_comment,omitempty"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TrainingRequestInput carries the applicant-provided fields
type TrainingRequestInput struct {
	TraineeName  string `json:"trainee_name"`
	TraineeID    string `json:"trainee_id"`
	TraineePhone string `json:"trainee_phone"`
	TraineeEmail string `json:"trainee_email"`
	University   string `json:"university"`
	Major        string `json:"major"`
	PeriodStart  string `json:"training_period_start"`
	PeriodEnd    string `json:"training_period_end"`
	Department   string `json:"department"`
	Purpose      string `json:"purpose"`
}

// NewTrainingRequest creates a validated pending TrainingRequest
func NewTrainingRequest(requester *User, in TrainingRequestInput, now time.Time) (*TrainingRequest, error) {
	if requester == nil {
		return nil, invalidf("training request requires a requester")
	}
	required := map[string]string{
		"trainee_name":  in.TraineeName,
		"trainee_id":    in.TraineeID,
		"trainee_phone": in.TraineePhone,
		"trainee_email": in.TraineeEmail,
		"university":    in.University,
		"major":         in.Major,
		"department":    in.Department,
		"purpose":       in.Purpose,
	}
	for _, key := range []string{"trainee_name", "trainee_id", "trainee_phone", "trainee_email", "university", "major", "department", "purpose"} {
		if strings.TrimSpace(required[key]) == "" {
			return nil, invalidf("%s is required", key)
		}
	}
	if !strings.Contains(in.TraineeEmail, "@") {
		return nil, invalidf("trainee email %q is not valid", in.TraineeEmail)
	}
	start, err := ParseDate(in.PeriodStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(in.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, invalidf("training period end %s is before start %s", end, start)
	}

	return &TrainingRequest{
		ID:           NewID(),
		RequesterID:  requester.ID,
		OrgUnitID:    requester.OrgUnitID,
		TraineeName:  strings.TrimSpace(in.TraineeName),
		TraineeID:    strings.TrimSpace(in.TraineeID),
		TraineePhone: strings.TrimSpace(in.TraineePhone),
		TraineeEmail: NormalizeEmail(in.TraineeEmail),
		University:   strings.TrimSpace(in.University),
		Major:        strings.TrimSpace(in.Major),
		PeriodStart:  start,
		PeriodEnd:    end,
		Department:   strings.TrimSpace(in.Department),
		Purpose:      strings.TrimSpace(in.Purpose),
		Status:       TrainingPending,
		SubmittedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (t *TrainingRequest) Approve(supervisorID, comment string, now time.Time) error {
	if t.Status != TrainingPending {
		return transitionf("training request is %s, expected %s", t.Status, TrainingPending)
	}
	t.Status = TrainingApproved
	t.SupervisorID = supervisorID
	t.SupervisorComment = comment
	t.ApprovedAt = timePtr(now)
	t.UpdatedAt = now
	return nil
}

func (t *TrainingRequest) Reject(supervisorID, comment string, now time.Time) error {
	if t.Status != TrainingPending {
		return transitionf("training request is %s, expected %s", t.Status, TrainingPending)
	}
	t.Status = TrainingRejected
	t.SupervisorID = supervisorID
	t.SupervisorComment = comment
	t.UpdatedAt = now
	return nil
}

func (t *TrainingRequest) Start(now time.Time) error {
	if t.Status != TrainingApproved {
		return transitionf("training request is %s, expected %s", t.Status, TrainingApproved)
	}
	t.Status = TrainingInProgress
	t.UpdatedAt = now
	return nil
}

func (t *TrainingRequest) Complete(now time.Time) error {
	if t.Status != TrainingInProgress {
		return transitionf("training request is %s, expected %s", t.Status, TrainingInProgress)
	}
	t.Status = TrainingCompleted
	t.UpdatedAt = now
	return nil
}

func (t *TrainingRequest) VisibleTo(u *User) bool {
	return u.IsTrainingSupervisor() || u.IsPrintManager() || t.RequesterID == u.ID
}

type EvaluationType string

const (
	EvaluationWeekly EvaluationType = "weekly"
	EvaluationFinal  EvaluationType = "final"
)

// TrainingEvaluation scores a trainee for one week or the whole period
type TrainingEvaluation struct {
	ID                string         `json:"id"`
	TrainingRequestID string         `json:"training_request_id"`
	Type              EvaluationType `json:"evaluation_type"`
	WeekNumber        int            `json:"week_number,omitempty"`
	AttendanceScore   int            `json:"attendance_score"`
	PerformanceScore  int            `json:"performance_score"`
	BehaviorScore     int            `json:"behavior_score"`
	Comments          string         `json:"comments,omitempty"`
	EvaluatedBy       string         `json:"evaluated_by,omitempty"`
	EvaluatedAt       time.Time      `json:"evaluated_at"`
}

// NewTrainingEvaluation creates a validated TrainingEvaluation
func NewTrainingEvaluation(requestID string, kind EvaluationType, week, attendance, performance, behavior int, by string, now time.Time) (*TrainingEvaluation, error) {
	if requestID == "" {
		return nil, invalidf("evaluation requires a training request")
	}
	switch kind {
	case EvaluationWeekly:
		if week < 1 {
			return nil, invalidf("weekly evaluation requires week number >= 1, got %d", week)
		}
	case EvaluationFinal:
		if week != 0 {
			return nil, invalidf("final evaluation cannot have a week number")
		}
	default:
		return nil, invalidf("unknown evaluation type %q", kind)
	}
	for name, score := range map[string]int{"attendance": attendance, "performance": performance, "behavior": behavior} {
		if score < 0 || score > 100 {
			return nil, invalidf("%s score must be between 0 and 100, got %d", name, score)
		}
	}
	return &TrainingEvaluation{
		ID:                NewID(),
		TrainingRequestID: requestID,
		Type:              kind,
		WeekNumber:        week,
		AttendanceScore:   attendance,
		PerformanceScore:  performance,
		BehaviorScore:     behavior,
		EvaluatedBy:       by,
		EvaluatedAt:       now,
	}, nil
}

// TotalScore is the mean of the three scores
func (e *TrainingEvaluation) TotalScore() float64 {
	return float64(e.AttendanceScore+e.PerformanceScore+e.BehaviorScore) / 3
}

// SameSlot reports whether two evaluations collide on (request, type, week)
func (e *TrainingEvaluation) SameSlot(other *TrainingEvaluation) bool {
	return e.TrainingRequestID == other.TrainingRequestID && e.Type == other.Type && e.WeekNumber == other.WeekNumber
}
