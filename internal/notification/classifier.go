package notification

import (
	"fmt"
	"strings"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
)

// Classify decides which notifications a single write produces. A deletion
// yields one cancellation and a creation yields one creation notice. An
// update can yield any combination of status, reschedule and doctor notices,
// in that order. Classify is pure.
func Classify(id string, before, after *appointment.Record) []Intent {
	switch {
	case before == nil && after == nil:
		return nil
	case after == nil:
		return []Intent{cancelled(id, before)}
	case before == nil:
		return []Intent{created(id, after)}
	}

	var intents []Intent

	// exact comparison; see statusPhrase for the lower-cased lookup
	if before.Status != after.Status {
		intents = append(intents, statusChanged(id, before, after))
	}

	if before.Date != after.Date || before.AppointmentTime != after.AppointmentTime {
		intents = append(intents, rescheduled(id, before, after))
	}

	if before.Doctor != after.Doctor && after.Doctor != "" {
		intents = append(intents, doctorAssigned(id, before, after))
	}

	return intents
}

// Reminder builds the day-before reminder for a confirmed appointment.
func Reminder(rec appointment.Record) Intent {
	with := rec.Doctor
	if with == "" {
		with = "the specialist"
	}

	return Intent{
		Kind:          KindReminder,
		AppointmentID: rec.ID,
		RecipientID:   rec.PatientID,
		Title:         "Appointment reminder",
		Body:          fmt.Sprintf("You have an appointment tomorrow at %s with %s", rec.AppointmentTime, with),
		Data: map[string]string{
			KeyType:          KindReminder.WireType(),
			KeyAppointmentID: rec.ID,
			KeyDate:          rec.Date,
			KeyTime:          rec.AppointmentTime,
			KeySpecialty:     rec.SpecialtyTherapy,
			KeyDoctor:        rec.Doctor,
		},
	}
}

func cancelled(id string, before *appointment.Record) Intent {
	return Intent{
		Kind:          KindCancelled,
		AppointmentID: id,
		RecipientID:   before.PatientID,
		Title:         "Appointment cancelled",
		Body:          fmt.Sprintf("Your appointment on %s at %s has been cancelled", before.Date, before.AppointmentTime),
		Data: map[string]string{
			KeyType:          KindCancelled.WireType(),
			KeyAppointmentID: id,
			KeyDate:          before.Date,
			KeyTime:          before.AppointmentTime,
		},
	}
}

func created(id string, after *appointment.Record) Intent {
	return Intent{
		Kind:          KindCreated,
		AppointmentID: id,
		RecipientID:   after.PatientID,
		Title:         "New appointment",
		Body:          fmt.Sprintf("A new appointment has been scheduled for %s at %s", after.Date, after.AppointmentTime),
		Data: map[string]string{
			KeyType:          KindCreated.WireType(),
			KeyAppointmentID: id,
			KeyDate:          after.Date,
			KeyTime:          after.AppointmentTime,
			KeySpecialty:     after.SpecialtyTherapy,
			KeyDoctor:        after.Doctor,
		},
	}
}

func statusChanged(id string, before, after *appointment.Record) Intent {
	return Intent{
		Kind:          KindStatusChanged,
		AppointmentID: id,
		RecipientID:   after.PatientID,
		Title:         "Appointment status updated",
		Body:          fmt.Sprintf("Your appointment on %s %s", after.Date, statusPhrase(after.Status)),
		Data: map[string]string{
			KeyType:           KindStatusChanged.WireType(),
			KeyAppointmentID:  id,
			KeyNewStatus:      after.Status,
			KeyPreviousStatus: before.Status,
			KeyDate:           after.Date,
			KeyTime:           after.AppointmentTime,
		},
	}
}

func rescheduled(id string, before, after *appointment.Record) Intent {
	return Intent{
		Kind:          KindRescheduled,
		AppointmentID: id,
		RecipientID:   after.PatientID,
		Title:         "Appointment rescheduled",
		Body:          fmt.Sprintf("Your appointment has been rescheduled to %s at %s", after.Date, after.AppointmentTime),
		Data: map[string]string{
			KeyType:          KindRescheduled.WireType(),
			KeyAppointmentID: id,
			KeyNewDate:       after.Date,
			KeyNewTime:       after.AppointmentTime,
			KeyPreviousDate:  before.Date,
			KeyPreviousTime:  before.AppointmentTime,
		},
	}
}

func doctorAssigned(id string, before, after *appointment.Record) Intent {
	previous := before.Doctor
	if previous == "" {
		previous = UnassignedDoctor
	}

	return Intent{
		Kind:          KindDoctorAssigned,
		AppointmentID: id,
		RecipientID:   after.PatientID,
		Title:         "Doctor assigned",
		Body:          fmt.Sprintf("Dr. %s has been assigned to your appointment on %s", after.Doctor, after.Date),
		Data: map[string]string{
			KeyType:           KindDoctorAssigned.WireType(),
			KeyAppointmentID:  id,
			KeyNewDoctor:      after.Doctor,
			KeyPreviousDoctor: previous,
			KeyDate:           after.Date,
			KeyTime:           after.AppointmentTime,
		},
	}
}

func statusPhrase(status string) string {
	switch strings.ToLower(status) {
	case appointment.StatusConfirmed:
		return "has been confirmed"
	case appointment.StatusPending:
		return "is pending confirmation"
	case appointment.StatusCancelled:
		return "has been cancelled"
	case appointment.StatusCompleted:
		return "has been completed"
	case appointment.StatusInProgress:
		return "is in progress"
	default:
		return "changed status to: " + status
	}
}
