package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	EvaluationPending    EvaluationStatus = "pending"
	EvaluationInProgress EvaluationStatus = "in_progress"
	EvaluationSubmitted  EvaluationStatus = "submitted"
)

// OpenEvaluationStatuses are the statuses a doctor can still edit.
var OpenEvaluationStatuses = []EvaluationStatus{EvaluationPending, EvaluationInProgress}

const (
	MinScore = 0
	MaxScore = 100
)

type Evaluation struct {
	ID                   uuid.UUID        `json:"id"`
	ApplicationID        uuid.UUID        `json:"application_id"`
	StudentID            uuid.UUID        `json:"student_id"`
	InternshipID         uuid.UUID        `json:"internship_id"`
	DoctorID             uuid.UUID        `json:"doctor_id"`
	Status               EvaluationStatus `json:"status"`
	Attendance           *int             `json:"attendance,omitempty"`
	PracticalSkills      *int             `json:"practical_skills,omitempty"`
	ProfessionalBehavior *int             `json:"professional_behavior,omitempty"`
	Score                *float64         `json:"score,omitempty"`
	Comments             string           `json:"comments,omitempty"`
	SubmittedAt          *time.Time       `json:"submitted_at,omitempty"`
	Validated            bool             `json:"validated"`
	ValidatedBy          *uuid.UUID       `json:"validated_by,omitempty"`
	ValidatedAt          *time.Time       `json:"validated_at,omitempty"`
	ChiefComments        string           `json:"chief_comments,omitempty"`
	RemindedAt           *time.Time       `json:"reminded_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Scores carries sub-scores from the doctor. Nil fields are left unchanged on a draft.
type Scores struct {
	Attendance           *int
	PracticalSkills      *int
	ProfessionalBehavior *int
}

func (s Scores) validate() error {
	for name, v := range map[string]*int{
		"attendance":            s.Attendance,
		"practical_skills":      s.PracticalSkills,
		"professional_behavior": s.ProfessionalBehavior,
	} {
		if v != nil && (*v < MinScore || *v > MaxScore) {
			return fmt.Errorf("%w: %s must be between %d and %d", ErrValidation, name, MinScore, MaxScore)
		}
	}
	return nil
}

func (s Scores) complete() bool {
	return s.Attendance != nil && s.PracticalSkills != nil && s.ProfessionalBehavior != nil
}

// Mean is the submitted score: the average of the three sub-scores.
func (s Scores) Mean() float64 {
	return float64(*s.Attendance+*s.PracticalSkills+*s.ProfessionalBehavior) / 3
}

func (e *Evaluation) Submitted() bool { return e.Status == EvaluationSubmitted }

// SaveDraft stores partial scores and moves the evaluation to in_progress.
func (e *Evaluation) SaveDraft(s Scores, comments *string, at time.Time) error {
	if e.Submitted() {
		return fmt.Errorf("%w: evaluation is already submitted", ErrInvalidTransition)
	}
	if err := s.validate(); err != nil {
		return err
	}
	if s.Attendance != nil {
		e.Attendance = s.Attendance
	}
	if s.PracticalSkills != nil {
		e.PracticalSkills = s.PracticalSkills
	}
	if s.ProfessionalBehavior != nil {
		e.ProfessionalBehavior = s.ProfessionalBehavior
	}
	if comments != nil {
		e.Comments = *comments
	}
	e.Status = EvaluationInProgress
	e.UpdatedAt = at
	return nil
}

// Submit finalizes the evaluation. A submitted evaluation is read-only.
func (e *Evaluation) Submit(s Scores, comments string, at time.Time) error {
	if e.Submitted() {
		return fmt.Errorf("%w: evaluation is already submitted", ErrInvalidTransition)
	}
	if !s.complete() {
		return fmt.Errorf("%w: attendance, practical_skills and professional_behavior are required", ErrValidation)
	}
	if err := s.validate(); err != nil {
		return err
	}
	score := s.Mean()
	e.Attendance, e.PracticalSkills, e.ProfessionalBehavior = s.Attendance, s.PracticalSkills, s.ProfessionalBehavior
	e.Score = &score
	e.Comments = comments
	e.Status = EvaluationSubmitted
	e.SubmittedAt = &at
	e.UpdatedAt = at
	return nil
}

// Validate records the supervising chief's sign-off on a submitted evaluation.
func (e *Evaluation) Validate(by uuid.UUID, comments string, at time.Time) error {
	if !e.Submitted() {
		return fmt.Errorf("%w: only submitted evaluations can be validated", ErrInvalidTransition)
	}
	if e.Validated {
		return fmt.Errorf("%w: evaluation is already validated", ErrInvalidTransition)
	}
	e.Validated = true
	e.ValidatedBy = &by
	e.ValidatedAt = &at
	e.ChiefComments = comments
	e.UpdatedAt = at
	return nil
}
