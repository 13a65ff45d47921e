package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/export"
	"github.com/vantagedesk/vantage-console/pkg/exportfile"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/sqlcheck"
	"github.com/vantagedesk/vantage-console/pkg/tabular"
)

// ExportService produces complete-dataset export files on the server. It
// satisfies export.Delegate.
type ExportService interface {
	ExportDataset(ctx context.Context, req export.Request) (*export.File, error)
}

type exportService struct {
	queries  repositories.QueryRepository
	executor datasource.Executor
	logger   *zap.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(queries repositories.QueryRepository, executor datasource.Executor, logger *zap.Logger) ExportService {
	return &exportService{queries: queries, executor: executor, logger: logger}
}

var (
	_ ExportService   = (*exportService)(nil)
	_ export.Delegate = (*exportService)(nil)
)

func (s *exportService) ExportDataset(ctx context.Context, req export.Request) (*export.File, error) {
	sqlQuery, err := s.resolveSQL(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.executor.QueryAll(ctx, sqlQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("export query failed: %w", err)
	}

	rows := make([][]tabular.Scalar, len(result.Rows))
	for i, raw := range result.Rows {
		row := make([]tabular.Scalar, len(raw))
		for j, cell := range raw {
			row[j] = tabular.FromAny(cell)
		}
		rows[i] = row
	}

	var (
		data        []byte
		contentType string
	)
	switch req.Format {
	case exportfile.FormatExcel:
		data, err = exportfile.WriteExcel(result.Columns, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case exportfile.FormatCSV:
		data, err = exportfile.WriteCSV(result.Columns, rows)
		contentType = "text/csv"
	default:
		return nil, fmt.Errorf("unsupported export format %q", req.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	s.logger.Info("Generated export",
		zap.String("format", req.Format),
		zap.Int("rows", len(rows)))

	return &export.File{ContentType: contentType, Data: data}, nil
}

// resolveSQL picks the statement to export: a saved query by ID, or raw
// SQL which must pass read-only validation.
func (s *exportService) resolveSQL(ctx context.Context, req export.Request) (string, error) {
	if req.QueryID > 0 {
		query, err := s.queries.GetByID(ctx, req.QueryID)
		if err != nil {
			return "", err
		}
		return query.SQLQuery, nil
	}
	cleaned, err := sqlcheck.Validate(req.SQLQuery)
	if err != nil {
		return "", fmt.Errorf("invalid export SQL: %w", err)
	}
	return cleaned, nil
}
