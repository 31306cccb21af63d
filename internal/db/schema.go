package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NOTIFY channels written by the triggers below.
const (
	ChannelAppointmentChanged = "appointment_changed"
	ChannelUserTokenCreated   = "user_token_created"
)

// schema is idempotent; it is applied by every binary on startup.
const schema = `
CREATE TABLE IF NOT EXISTS appointments (
    id                TEXT PRIMARY KEY,
    patient_id        TEXT NOT NULL,
    date              TEXT NOT NULL,
    appointment_time  TEXT NOT NULL,
    status            TEXT NOT NULL,
    doctor            TEXT,
    specialty_therapy TEXT,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_appointments_date_status
    ON appointments (date, status);

CREATE TABLE IF NOT EXISTS user_tokens (
    user_id    TEXT PRIMARY KEY,
    token      TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE OR REPLACE FUNCTION appointment_state(a appointments) RETURNS jsonb AS $$
    SELECT jsonb_build_object(
        'id', a.id,
        'patientID', a.patient_id,
        'date', a.date,
        'appointmentTime', a.appointment_time,
        'status', a.status,
        'doctor', a.doctor,
        'specialtyTherapy', a.specialty_therapy
    );
$$ LANGUAGE sql IMMUTABLE;

CREATE OR REPLACE FUNCTION notify_appointment_changed() RETURNS trigger AS $$
DECLARE
    payload jsonb;
BEGIN
    IF TG_OP = 'INSERT' THEN
        payload := jsonb_build_object('id', NEW.id, 'before', NULL, 'after', appointment_state(NEW));
    ELSIF TG_OP = 'UPDATE' THEN
        payload := jsonb_build_object('id', NEW.id, 'before', appointment_state(OLD), 'after', appointment_state(NEW));
    ELSE
        payload := jsonb_build_object('id', OLD.id, 'before', appointment_state(OLD), 'after', NULL);
    END IF;
    PERFORM pg_notify('appointment_changed', payload::text);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS appointments_notify ON appointments;
CREATE TRIGGER appointments_notify
    AFTER INSERT OR UPDATE OR DELETE ON appointments
    FOR EACH ROW EXECUTE FUNCTION notify_appointment_changed();

CREATE OR REPLACE FUNCTION notify_user_token_created() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('user_token_created',
        jsonb_build_object('userId', NEW.user_id, 'token', NEW.token)::text);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS user_tokens_notify ON user_tokens;
CREATE TRIGGER user_tokens_notify
    AFTER INSERT ON user_tokens
    FOR EACH ROW EXECUTE FUNCTION notify_user_token_created();
`

// EnsureSchema creates the tables and change triggers the notifier relies on.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
