// Package services holds the business logic between HTTP handlers and the
// repositories and reporting datasource.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/roles"
	"github.com/vantagedesk/vantage-console/pkg/sqlcheck"
)

// QueryService manages saved report definitions and executes them against
// the reporting datasource with role gating.
type QueryService interface {
	// Create validates and stores a new saved query.
	Create(ctx context.Context, query *models.Query) error

	// Update validates and stores changes to an existing saved query.
	Update(ctx context.Context, query *models.Query) error

	// Delete removes a saved query.
	Delete(ctx context.Context, id int64) error

	// Get returns one saved query without executing it.
	Get(ctx context.Context, id int64) (*models.Query, error)

	// List returns all saved queries.
	List(ctx context.Context) ([]*models.Query, error)

	// ListForMenu returns the saved queries attached to a menu item that
	// the given role may run.
	ListForMenu(ctx context.Context, menuItemID int64, userRole string) ([]*models.Query, error)

	// Execute runs a saved query for a user. Results are shaped for the
	// query's chart type. A query the role may not see returns
	// apperrors.ErrForbidden.
	Execute(ctx context.Context, id int64, userRole string) (*models.QueryResult, error)

	// ExecuteFiltered runs a saved query with dashboard filter conditions
	// applied on top of its SQL.
	ExecuteFiltered(ctx context.Context, id int64, userRole string, filters *datasource.FilterSet) (*models.QueryResult, error)

	// Validate checks raw SQL for read-only shape and syntax without
	// running it.
	Validate(ctx context.Context, sqlQuery string) error
}

type queryService struct {
	queries  repositories.QueryRepository
	executor datasource.Executor
	logger   *zap.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(queries repositories.QueryRepository, executor datasource.Executor, logger *zap.Logger) QueryService {
	return &queryService{
		queries:  queries,
		executor: executor,
		logger:   logger,
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) Create(ctx context.Context, query *models.Query) error {
	cleaned, err := s.prepare(query)
	if err != nil {
		return err
	}
	query.SQLQuery = cleaned

	if err := s.queries.Create(ctx, query); err != nil {
		return err
	}
	s.logger.Info("Created saved query",
		zap.Int64("query_id", query.ID),
		zap.String("name", query.Name))
	return nil
}

func (s *queryService) Update(ctx context.Context, query *models.Query) error {
	cleaned, err := s.prepare(query)
	if err != nil {
		return err
	}
	query.SQLQuery = cleaned

	return s.queries.Update(ctx, query)
}

// prepare validates the definition and canonicalizes its role list.
func (s *queryService) prepare(query *models.Query) (string, error) {
	if query.Name == "" {
		return "", fmt.Errorf("query name is required")
	}
	cleaned, err := sqlcheck.Validate(query.SQLQuery)
	if err != nil {
		return "", fmt.Errorf("invalid query SQL: %w", err)
	}
	query.Role = roles.Serialize(roles.Split(query.Role))
	return cleaned, nil
}

func (s *queryService) Delete(ctx context.Context, id int64) error {
	return s.queries.Delete(ctx, id)
}

func (s *queryService) Get(ctx context.Context, id int64) (*models.Query, error) {
	return s.queries.GetByID(ctx, id)
}

func (s *queryService) List(ctx context.Context) ([]*models.Query, error) {
	return s.queries.List(ctx)
}

func (s *queryService) ListForMenu(ctx context.Context, menuItemID int64, userRole string) ([]*models.Query, error) {
	all, err := s.queries.ListByMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	visible := make([]*models.Query, 0, len(all))
	for _, q := range all {
		if roles.Authorized(userRole, q.Role) {
			visible = append(visible, q)
		}
	}
	return visible, nil
}

func (s *queryService) Execute(ctx context.Context, id int64, userRole string) (*models.QueryResult, error) {
	return s.execute(ctx, id, userRole, nil)
}

func (s *queryService) ExecuteFiltered(ctx context.Context, id int64, userRole string, filters *datasource.FilterSet) (*models.QueryResult, error) {
	return s.execute(ctx, id, userRole, filters)
}

func (s *queryService) execute(ctx context.Context, id int64, userRole string, filters *datasource.FilterSet) (*models.QueryResult, error) {
	query, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !roles.Authorized(userRole, query.Role) {
		return nil, apperrors.ErrForbidden
	}

	start := time.Now()
	result, err := s.executor.QueryFiltered(ctx, query.SQLQuery, filters, datasource.MaxQueryLimit)
	if err != nil {
		// Execution errors travel in-band so one broken widget does not
		// blank the whole page.
		s.logger.Warn("Query execution failed",
			zap.Int64("query_id", id),
			zap.Error(err))
		return &models.QueryResult{
			Success: false,
			Error:   "Query execution failed",
		}, nil
	}
	elapsed := time.Since(start).Seconds()

	totalCount := len(result.Rows)
	if totalCount == datasource.MaxQueryLimit {
		// The window may have been capped; ask for the real count.
		if count, err := s.executor.Count(ctx, query.SQLQuery, filters); err == nil {
			totalCount = count
		} else {
			s.logger.Warn("Count query failed", zap.Int64("query_id", id), zap.Error(err))
		}
	}

	response := &models.QueryResult{
		Success:       true,
		ChartType:     query.ChartType,
		ChartConfig:   query.ChartConfig,
		ExecutionTime: elapsed,
	}

	if query.IsChart() {
		response.Chart = shapeChart(result, query.ChartType)
	} else {
		response.Table = &models.TableData{
			Columns:    result.Columns,
			Data:       result.Rows,
			TotalCount: totalCount,
		}
	}

	return response, nil
}

func (s *queryService) Validate(ctx context.Context, sqlQuery string) error {
	cleaned, err := sqlcheck.Validate(sqlQuery)
	if err != nil {
		return err
	}
	if err := s.executor.Validate(ctx, cleaned); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("query rejected by datasource: %w", err)
	}
	return nil
}
