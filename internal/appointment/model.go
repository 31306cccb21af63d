package appointment

// Status codes as stored by the scheduling app. The set is open ended;
// unknown codes are carried through verbatim.
const (
	StatusPending    = "pendiente"
	StatusConfirmed  = "confirmada"
	StatusCancelled  = "cancelada"
	StatusCompleted  = "completada"
	StatusInProgress = "en_proceso"
)

// Record is one appointment as seen by the notifier. Date and AppointmentTime
// are kept as the strings the app writes ("2024-05-01", "10:00") and are only
// ever compared for equality. An empty Doctor means unassigned.
type Record struct {
	ID               string `json:"id"`
	PatientID        string `json:"patientID"`
	Date             string `json:"date"`
	AppointmentTime  string `json:"appointmentTime"`
	Status           string `json:"status"`
	Doctor           string `json:"doctor,omitempty"`
	SpecialtyTherapy string `json:"specialtyTherapy,omitempty"`
}

// Change is one write observed on the appointment store. Before is nil for a
// creation, After is nil for a deletion.
type Change struct {
	ID     string  `json:"id"`
	Before *Record `json:"before"`
	After  *Record `json:"after"`
}
