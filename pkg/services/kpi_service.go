package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/tabular"
)

// KPIService computes the dashboard metric strip.
type KPIService interface {
	// Compute runs every active KPI definition and returns labeled
	// values. A failing or non-numeric KPI reports zero so the strip
	// always renders completely.
	Compute(ctx context.Context) ([]*models.KPI, error)
}

type kpiService struct {
	kpis     repositories.KPIRepository
	executor datasource.Executor
	logger   *zap.Logger
}

// NewKPIService creates a new KPIService.
func NewKPIService(kpis repositories.KPIRepository, executor datasource.Executor, logger *zap.Logger) KPIService {
	return &kpiService{kpis: kpis, executor: executor, logger: logger}
}

var _ KPIService = (*kpiService)(nil)

func (s *kpiService) Compute(ctx context.Context) ([]*models.KPI, error) {
	definitions, err := s.kpis.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, kpi := range definitions {
		result, err := s.executor.Query(ctx, kpi.SQLQuery, 1)
		if err != nil {
			s.logger.Warn("KPI query failed",
				zap.Int64("kpi_id", kpi.ID),
				zap.String("label", kpi.Label),
				zap.Error(err))
			kpi.Value = 0
			continue
		}
		kpi.Value = firstCellValue(result)
	}

	return definitions, nil
}

func firstCellValue(result *datasource.Result) float64 {
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0
	}
	if n, ok := tabular.FromAny(result.Rows[0][0]).Numeric(); ok {
		return n
	}
	return 0
}
