package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
)

func baseRecord() *appointment.Record {
	return &appointment.Record{
		ID:               "appt-1",
		PatientID:        "patient-1",
		Date:             "2024-05-01",
		AppointmentTime:  "10:00",
		Status:           appointment.StatusPending,
		SpecialtyTherapy: "Physiotherapy",
	}
}

func kinds(intents []Intent) []Kind {
	out := make([]Kind, 0, len(intents))
	for _, in := range intents {
		out = append(out, in.Kind)
	}
	return out
}

func TestClassifyCreation(t *testing.T) {
	after := baseRecord()

	intents := Classify("appt-1", nil, after)
	require.Len(t, intents, 1)

	in := intents[0]
	assert.Equal(t, KindCreated, in.Kind)
	assert.Equal(t, "patient-1", in.RecipientID)
	assert.Equal(t, "new_appointment", in.Data[KeyType])
	assert.Equal(t, "Physiotherapy", in.Data[KeySpecialty])
	assert.Equal(t, "", in.Data[KeyDoctor])
	assert.Contains(t, in.Body, "2024-05-01")
	assert.Contains(t, in.Body, "10:00")
}

func TestClassifyDeletion(t *testing.T) {
	before := baseRecord()

	intents := Classify("appt-1", before, nil)
	require.Len(t, intents, 1)

	in := intents[0]
	assert.Equal(t, KindCancelled, in.Kind)
	assert.Equal(t, "patient-1", in.RecipientID)
	assert.Equal(t, "2024-05-01", in.Data[KeyDate])
	assert.Equal(t, "10:00", in.Data[KeyTime])
}

func TestClassifyNothing(t *testing.T) {
	assert.Empty(t, Classify("appt-1", nil, nil))
}

func TestClassifyMutations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *appointment.Record)
		want   []Kind
	}{
		{
			name:   "status only",
			mutate: func(r *appointment.Record) { r.Status = appointment.StatusConfirmed },
			want:   []Kind{KindStatusChanged},
		},
		{
			name: "status and date",
			mutate: func(r *appointment.Record) {
				r.Status = appointment.StatusConfirmed
				r.Date = "2024-05-02"
			},
			want: []Kind{KindStatusChanged, KindRescheduled},
		},
		{
			name:   "time only",
			mutate: func(r *appointment.Record) { r.AppointmentTime = "11:30" },
			want:   []Kind{KindRescheduled},
		},
		{
			name:   "doctor assigned",
			mutate: func(r *appointment.Record) { r.Doctor = "García" },
			want:   []Kind{KindDoctorAssigned},
		},
		{
			name: "everything",
			mutate: func(r *appointment.Record) {
				r.Status = appointment.StatusConfirmed
				r.Date = "2024-05-03"
				r.Doctor = "Ruiz"
			},
			want: []Kind{KindStatusChanged, KindRescheduled, KindDoctorAssigned},
		},
		{
			name:   "specialty only",
			mutate: func(r *appointment.Record) { r.SpecialtyTherapy = "Speech therapy" },
			want:   []Kind{},
		},
		{
			name:   "status differs only in case",
			mutate: func(r *appointment.Record) { r.Status = "Pendiente" },
			want:   []Kind{KindStatusChanged},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := baseRecord()
			after := baseRecord()
			after.PatientID = "patient-after"
			tt.mutate(after)

			intents := Classify("appt-1", before, after)
			assert.Equal(t, tt.want, kinds(intents))
			for _, in := range intents {
				assert.Equal(t, "patient-after", in.RecipientID)
				assert.Equal(t, "appt-1", in.AppointmentID)
			}
		})
	}
}

func TestClassifyDoctorRemovedDoesNotNotify(t *testing.T) {
	before := baseRecord()
	before.Doctor = "García"
	after := baseRecord()

	assert.Empty(t, Classify("appt-1", before, after))
}

func TestClassifyPendingToConfirmedWithDoctor(t *testing.T) {
	before := &appointment.Record{PatientID: "p-9", Status: "pendiente", Date: "2024-05-01", AppointmentTime: "10:00"}
	after := &appointment.Record{PatientID: "p-9", Status: "confirmada", Date: "2024-05-01", AppointmentTime: "10:00", Doctor: "García"}

	intents := Classify("appt-9", before, after)
	require.Equal(t, []Kind{KindStatusChanged, KindDoctorAssigned}, kinds(intents))

	status := intents[0]
	assert.Equal(t, "pendiente", status.Data[KeyPreviousStatus])
	assert.Equal(t, "confirmada", status.Data[KeyNewStatus])
	assert.Equal(t, "Your appointment on 2024-05-01 has been confirmed", status.Body)

	doctor := intents[1]
	assert.Equal(t, UnassignedDoctor, doctor.Data[KeyPreviousDoctor])
	assert.Equal(t, "García", doctor.Data[KeyNewDoctor])
}

func TestClassifyIsDeterministic(t *testing.T) {
	before := baseRecord()
	after := baseRecord()
	after.Status = appointment.StatusCancelled
	after.Date = "2024-06-01"
	after.Doctor = "Ruiz"

	first := Classify("appt-1", before, after)
	second := Classify("appt-1", before, after)
	assert.Equal(t, first, second)
}

func TestClassifyMetadataKeys(t *testing.T) {
	before := baseRecord()
	after := baseRecord()
	after.Status = appointment.StatusConfirmed
	after.Date = "2024-05-02"
	after.Doctor = "Ruiz"

	all := append(Classify("appt-1", before, after), Classify("appt-1", nil, after)...)
	all = append(all, Classify("appt-1", before, nil)...)
	all = append(all, Reminder(*after))

	required := map[Kind][]string{
		KindCreated:        {KeyAppointmentID, KeyDate, KeyTime, KeySpecialty, KeyDoctor},
		KindCancelled:      {KeyAppointmentID, KeyDate, KeyTime},
		KindStatusChanged:  {KeyAppointmentID, KeyNewStatus, KeyPreviousStatus, KeyDate, KeyTime},
		KindRescheduled:    {KeyAppointmentID, KeyNewDate, KeyNewTime, KeyPreviousDate, KeyPreviousTime},
		KindDoctorAssigned: {KeyAppointmentID, KeyNewDoctor, KeyPreviousDoctor, KeyDate, KeyTime},
		KindReminder:       {KeyAppointmentID, KeyDate, KeyTime, KeySpecialty, KeyDoctor},
	}

	require.Len(t, all, len(required))
	for _, in := range all {
		keys, ok := required[in.Kind]
		require.True(t, ok, "unexpected kind %s", in.Kind)
		for _, key := range keys {
			assert.Contains(t, in.Data, key, "kind %s missing %s", in.Kind, key)
		}
		assert.Equal(t, in.Kind.WireType(), in.Data[KeyType])
	}
}

func TestReminder(t *testing.T) {
	rec := *baseRecord()
	rec.Status = appointment.StatusConfirmed

	in := Reminder(rec)
	assert.Equal(t, KindReminder, in.Kind)
	assert.Equal(t, "patient-1", in.RecipientID)
	assert.Equal(t, "You have an appointment tomorrow at 10:00 with the specialist", in.Body)

	rec.Doctor = "García"
	assert.Equal(t, "You have an appointment tomorrow at 10:00 with García", Reminder(rec).Body)
}

func TestStatusPhrase(t *testing.T) {
	tests := map[string]string{
		"confirmada": "has been confirmed",
		"CONFIRMADA": "has been confirmed",
		"pendiente":  "is pending confirmation",
		"cancelada":  "has been cancelled",
		"completada": "has been completed",
		"en_proceso": "is in progress",
		"no_show":    "changed status to: no_show",
	}
	for status, want := range tests {
		assert.Equal(t, want, statusPhrase(status), status)
	}
}
