package notification

type Kind string

const (
	KindCreated        Kind = "created"
	KindCancelled      Kind = "cancelled"
	KindStatusChanged  Kind = "status_changed"
	KindRescheduled    Kind = "rescheduled"
	KindDoctorAssigned Kind = "doctor_assigned"
	KindReminder       Kind = "reminder"
)

// WireType is the value of the "type" data key the mobile client routes on.
func (k Kind) WireType() string {
	switch k {
	case KindCreated:
		return "new_appointment"
	case KindCancelled:
		return "appointment_cancelled"
	case KindRescheduled:
		return "appointment_updated"
	case KindReminder:
		return "appointment_reminder"
	default:
		return string(k)
	}
}

// Data keys.
const (
	KeyType           = "type"
	KeyAppointmentID  = "appointmentId"
	KeyDate           = "date"
	KeyTime           = "time"
	KeySpecialty      = "specialty"
	KeyDoctor         = "doctor"
	KeyNewStatus      = "newStatus"
	KeyPreviousStatus = "previousStatus"
	KeyNewDate        = "newDate"
	KeyNewTime        = "newTime"
	KeyPreviousDate   = "previousDate"
	KeyPreviousTime   = "previousTime"
	KeyNewDoctor      = "newDoctor"
	KeyPreviousDoctor = "previousDoctor"
)

// UnassignedDoctor is reported as previousDoctor when nobody was assigned.
const UnassignedDoctor = "unassigned"

// Intent is one notification to send, before a device token is resolved.
type Intent struct {
	Kind          Kind
	AppointmentID string
	RecipientID   string
	Title         string
	Body          string
	Data          map[string]string
}
