package repository

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/gallery"
)

var _ gallery.Store = (*IdentityRepository)(nil)

// IdentityRepository reads registered employees and their face embeddings
type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// ListActiveIdentities returns every active employee that has an embedding,
// ordered by employee id.
func (r *IdentityRepository) ListActiveIdentities(ctx context.Context) ([]domain.Identity, error) {
	query := `
		SELECT employee_id, name, embedding
		FROM employees
		WHERE is_active = true AND embedding IS NOT NULL
		ORDER BY employee_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active identities: %w", err)
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		var (
			id        domain.Identity
			embedding *pgvector.Vector
		)
		if err := rows.Scan(&id.ID, &id.DisplayName, &embedding); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}

		if embedding == nil || len(embedding.Slice()) == 0 {
			continue
		}
		id.Embedding = toFloat64(embedding.Slice())
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
