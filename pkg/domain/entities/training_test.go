package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrainingInput() TrainingRequestInput {
	return TrainingRequestInput{
		TraineeName:  "Sara",
		TraineeID:    "4410022",
		TraineePhone: "0500000000",
		TraineeEmail: "Sara@Uni.edu",
		University:   "King Saud University",
		Major:        "Graphic Design",
		PeriodStart:  "2025-09-01",
		PeriodEnd:    "2025-11-30",
		Department:   "design",
		Purpose:      "coop",
	}
}

func TestNewTrainingRequest(t *testing.T) {
	now := time.Now()
	req, err := NewTrainingRequest(&User{ID: "u"}, validTrainingInput(), now)
	require.NoError(t, err)
	assert.Equal(t, "sara@uni.edu", req.TraineeEmail)
	assert.Equal(t, TrainingPending, req.Status)

	in := validTrainingInput()
	in.PeriodEnd = "2025-08-01"
	_, err = NewTrainingRequest(&User{ID: "u"}, in, now)
	assert.EqualError(t, err, "validation failed: training period end 2025-08-01 is before start 2025-09-01")

	in = validTrainingInput()
	in.Major = ""
	_, err = NewTrainingRequest(&User{ID: "u"}, in, now)
	assert.EqualError(t, err, "validation failed: major is required")
}

func TestTrainingRequest_Transitions(t *testing.T) {
	now := time.Now()
	req, err := NewTrainingRequest(&User{ID: "u"}, validTrainingInput(), now)
	require.NoError(t, err)

	assert.ErrorIs(t, req.Start(now), ErrInvalidTransition)
	require.NoError(t, req.Approve("sup", "welcome", now))
	assert.Equal(t, "sup", req.SupervisorID)
	assert.ErrorIs(t, req.Reject("sup", "", now), ErrInvalidTransition)
	require.NoError(t, req.Start(now))
	require.NoError(t, req.Complete(now))
	assert.Equal(t, TrainingCompleted, req.Status)
}

func TestTrainingEvaluation(t *testing.T) {
	now := time.Now()

	weekly, err := NewTrainingEvaluation("r", EvaluationWeekly, 2, 90, 80, 70, "sup", now)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, weekly.TotalScore(), 0.001)

	_, err = NewTrainingEvaluation("r", EvaluationWeekly, 0, 90, 80, 70, "sup", now)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewTrainingEvaluation("r", EvaluationFinal, 3, 90, 80, 70, "sup", now)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewTrainingEvaluation("r", EvaluationFinal, 0, 101, 80, 70, "sup", now)
	assert.EqualError(t, err, "validation failed: attendance score must be between 0 and 100, got 101")

	again, err := NewTrainingEvaluation("r", EvaluationWeekly, 2, 50, 50, 50, "sup", now)
	require.NoError(t, err)
	assert.True(t, weekly.SameSlot(again))
}
