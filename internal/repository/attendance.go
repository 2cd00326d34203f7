package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/attendance"
)

const methodFaceRecognition = "face_recognition"

var _ attendance.Store = (*AttendanceRepository)(nil)

// AttendanceRepository keeps one attendance row per employee per day
type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// RecordAttendance inserts the day's check-in. The conflict branch only runs
// when a row appeared after warm-up; it then behaves like TouchAttendance.
func (r *AttendanceRepository) RecordAttendance(ctx context.Context, identityID string, confidence float64, ts time.Time) error {
	query := `
		INSERT INTO attendance (employee_id, date, check_in_time, confidence, detection_method)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			check_out_time = EXCLUDED.check_in_time,
			confidence = GREATEST(attendance.confidence, EXCLUDED.confidence),
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, identityID, dateOf(ts), ts, confidence, methodFaceRecognition)
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}

	return nil
}

// TouchAttendance moves the day's check_out_time forward and keeps the
// highest confidence. Without a row for the day it changes nothing.
func (r *AttendanceRepository) TouchAttendance(ctx context.Context, identityID string, confidence float64, ts time.Time) error {
	query := `
		UPDATE attendance SET
			check_out_time = $3,
			confidence = GREATEST(confidence, $4),
			updated_at = NOW()
		WHERE employee_id = $1 AND date = $2
			AND (check_out_time IS NULL OR check_out_time < $3)
	`

	_, err := r.pool.Exec(ctx, query, identityID, dateOf(ts), ts, confidence)
	if err != nil {
		return fmt.Errorf("touch attendance: %w", err)
	}

	return nil
}

// HasAttendanceToday reports whether identityID already has a row for day
func (r *AttendanceRepository) HasAttendanceToday(ctx context.Context, identityID string, day time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance WHERE employee_id = $1 AND date = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, identityID, dateOf(day)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}

	return exists, nil
}

// dateOf truncates ts to its calendar date in ts's own location, so the
// DATE column matches the server-local day the dedup set rotates on.
func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
