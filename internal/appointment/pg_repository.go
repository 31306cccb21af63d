package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const recordColumns = `id, patient_id, date, appointment_time, status, doctor, specialty_therapy`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var doctor, specialty *string

	err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.Date,
		&r.AppointmentTime,
		&r.Status,
		&doctor,
		&specialty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if doctor != nil {
		r.Doctor = *doctor
	}
	if specialty != nil {
		r.SpecialtyTherapy = *specialty
	}
	return &r, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id string) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanRecord(row)
}

func (r *PgRepository) FindByDateAndStatus(ctx context.Context, date, status string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM appointments
		WHERE date = $1
		  AND status = $2
		ORDER BY appointment_time
	`, date, status)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
