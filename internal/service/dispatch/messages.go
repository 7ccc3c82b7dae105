package dispatch

import (
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/pkg/constants"
)

const (
	EventInternshipCreated   = "internship:created"
	EventInternshipUpdated   = "internship:updated"
	EventInternshipClosed    = "internship:closed"
	EventApplicationCreated  = "application:submitted"
	EventApplicationAccepted = "application:accepted"
	EventApplicationRejected = "application:rejected"
	EventEvaluationCreated   = "evaluation:created"
	EventEvaluationSubmitted = "evaluation:submitted"
	EventEvaluationGraded    = "evaluation:graded"
	EventEvaluationReminder  = "evaluation:reminder"
)

func internshipPayload(in *domain.Internship, event string, typ domain.NotificationType, title, msg string) Payload {
	id := in.ID
	return Payload{
		Event:             event,
		Type:              typ,
		Title:             title,
		Message:           msg,
		RelatedEntityType: constants.EntityInternship,
		RelatedEntityID:   &id,
	}
}

func InternshipCreated(in *domain.Internship) Payload {
	return internshipPayload(in, EventInternshipCreated, domain.NotificationInfo,
		"New internship available",
		fmt.Sprintf("A new internship %q is open with %d places.", in.Title, in.TotalPlaces))
}

func InternshipFull(in *domain.Internship) Payload {
	return internshipPayload(in, EventInternshipUpdated, domain.NotificationInfo,
		"Internship full",
		fmt.Sprintf("All places of internship %q are taken.", in.Title))
}

func InternshipClosed(in *domain.Internship) Payload {
	return internshipPayload(in, EventInternshipClosed, domain.NotificationWarning,
		"Internship closed",
		fmt.Sprintf("Internship %q no longer accepts applications.", in.Title))
}

func InternshipReopened(in *domain.Internship) Payload {
	return internshipPayload(in, EventInternshipUpdated, domain.NotificationInfo,
		"Internship updated",
		fmt.Sprintf("Internship %q has %d free places again.", in.Title, in.TotalPlaces-in.FilledPlaces))
}

func applicationPayload(a *domain.Application, event string, typ domain.NotificationType, title, msg string) Payload {
	id := a.ID
	return Payload{
		Event:             event,
		Type:              typ,
		Title:             title,
		Message:           msg,
		RelatedEntityType: constants.EntityApplication,
		RelatedEntityID:   &id,
	}
}

func NewApplication(a *domain.Application, in *domain.Internship) Payload {
	return applicationPayload(a, EventApplicationCreated, domain.NotificationInfo,
		"New application",
		fmt.Sprintf("A student applied to internship %q.", in.Title))
}

func ApplicationSubmitted(a *domain.Application, in *domain.Internship) Payload {
	return applicationPayload(a, EventApplicationCreated, domain.NotificationSuccess,
		"Application submitted",
		fmt.Sprintf("Your application to internship %q was submitted.", in.Title))
}

func ApplicationDecided(a *domain.Application, in *domain.Internship) Payload {
	if a.Status == domain.ApplicationAccepted {
		return applicationPayload(a, EventApplicationAccepted, domain.NotificationSuccess,
			"Application accepted",
			fmt.Sprintf("Your application to internship %q was accepted.", in.Title))
	}
	msg := fmt.Sprintf("Your application to internship %q was rejected.", in.Title)
	if a.RejectionReason != "" {
		msg = fmt.Sprintf("Your application to internship %q was rejected: %s", in.Title, a.RejectionReason)
	}
	return applicationPayload(a, EventApplicationRejected, domain.NotificationError, "Application rejected", msg)
}

func evaluationPayload(e *domain.Evaluation, event string, typ domain.NotificationType, title, msg string) Payload {
	id := e.ID
	return Payload{
		Event:             event,
		Type:              typ,
		Title:             title,
		Message:           msg,
		RelatedEntityType: constants.EntityEvaluation,
		RelatedEntityID:   &id,
	}
}

func EvaluationStarted(e *domain.Evaluation, in *domain.Internship) Payload {
	return evaluationPayload(e, EventEvaluationCreated, domain.NotificationInfo,
		"Evaluation started",
		fmt.Sprintf("Your evaluation for internship %q has been opened.", in.Title))
}

func EvaluationSubmitted(e *domain.Evaluation, in *domain.Internship) Payload {
	score := 0.0
	if e.Score != nil {
		score = *e.Score
	}
	return evaluationPayload(e, EventEvaluationSubmitted, domain.NotificationSuccess,
		"Evaluation submitted",
		fmt.Sprintf("Your evaluation for internship %q was submitted with a score of %.2f.", in.Title, score))
}

func EvaluationAwaitingValidation(e *domain.Evaluation, in *domain.Internship) Payload {
	return evaluationPayload(e, EventEvaluationSubmitted, domain.NotificationInfo,
		"Evaluation awaiting validation",
		fmt.Sprintf("An evaluation for internship %q is ready for validation.", in.Title))
}

func EvaluationValidated(e *domain.Evaluation, in *domain.Internship) Payload {
	return evaluationPayload(e, EventEvaluationGraded, domain.NotificationSuccess,
		"Evaluation validated",
		fmt.Sprintf("Your evaluation for internship %q was validated.", in.Title))
}

func EvaluationReminder(e *domain.Evaluation, in *domain.Internship) Payload {
	return evaluationPayload(e, EventEvaluationReminder, domain.NotificationWarning,
		"Evaluation reminder",
		fmt.Sprintf("An evaluation for internship %q is waiting for you. Please submit it.", in.Title))
}
