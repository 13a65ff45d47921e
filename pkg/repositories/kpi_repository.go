package repositories

import (
	"context"
	"fmt"

	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// KPIRepository provides data access for dashboard KPI definitions.
type KPIRepository interface {
	ListActive(ctx context.Context) ([]*models.KPI, error)
}

type kpiRepository struct {
	db *database.DB
}

// NewKPIRepository creates a new KPIRepository.
func NewKPIRepository(db *database.DB) KPIRepository {
	return &kpiRepository{db: db}
}

var _ KPIRepository = (*kpiRepository)(nil)

func (r *kpiRepository) ListActive(ctx context.Context) ([]*models.KPI, error) {
	sql := `
		SELECT id, label, sql_query, sort_order, is_active
		FROM kpis
		WHERE is_active = true
		ORDER BY sort_order, id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query KPIs: %w", err)
	}
	defer rows.Close()

	var kpis []*models.KPI
	for rows.Next() {
		var k models.KPI
		if err := rows.Scan(&k.ID, &k.Label, &k.SQLQuery, &k.SortOrder, &k.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan KPI: %w", err)
		}
		kpis = append(kpis, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating KPIs: %w", err)
	}

	return kpis, nil
}
