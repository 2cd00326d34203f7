package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/safety"
)

var _ safety.EventStore = (*SafetyEventRepository)(nil)

type SafetyEventRepository struct {
	pool PgxPool
}

func NewSafetyEventRepository(pool PgxPool) *SafetyEventRepository {
	return &SafetyEventRepository{pool: pool}
}

func (r *SafetyEventRepository) SaveSafetyEvent(ctx context.Context, ev *domain.SafetyEvent) error {
	query := `
		INSERT INTO safety_events (id, employee_id, safety_status, violations, violation_count, safety_score, camera_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	violations := ev.Violations
	if violations == nil {
		violations = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		ev.ID,
		ev.EmployeeID,
		string(ev.Status),
		violations,
		ev.ViolationCount,
		ev.SafetyScore,
		ev.CameraID,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save safety event: %w", err)
	}

	return nil
}

func (r *SafetyEventRepository) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (id, employee_id, type, message, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		alert.ID,
		alert.EmployeeID,
		alert.Type,
		alert.Message,
		string(alert.Priority),
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	return nil
}
