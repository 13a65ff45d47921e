// Package export arbitrates between the two export paths: a local,
// synchronous serialization of the currently filtered view and a server
// round-trip for the complete dataset. It owns the one-job-in-flight rule
// and the timeout policy for each path.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/exportfile"
	"github.com/vantagedesk/vantage-console/pkg/tabular"
)

// Export scopes.
const (
	// ScopeCurrent exports what the user currently sees: the filtered and
	// sorted window, all pages.
	ScopeCurrent = "current"
	// ScopeComplete exports the whole dataset via the server.
	ScopeComplete = "complete"
)

// Job states.
const (
	StateIdle      = "idle"
	StateRequested = "requested"
	StateSuccess   = "success"
	StateTimedOut  = "timed-out"
	StateFailed    = "failed"
)

// DefaultExcelTimeout bounds the server round-trip for a current-view
// excel export. Complete-dataset exports are deliberately unbounded: they
// may legitimately run for minutes and a premature client timeout would
// abandon a valid job.
const DefaultExcelTimeout = 45 * time.Second

// Request describes one export.
type Request struct {
	Scope    string `json:"scope"`
	Format   string `json:"format"`
	Filename string `json:"filename,omitempty"`
	QueryID  int64  `json:"query_id,omitempty"`
	SQLQuery string `json:"sql_query,omitempty"`
}

// File is a completed export payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Job records the outcome of one export request.
type Job struct {
	ID      uuid.UUID
	Request Request
	State   string
	Message string
	File    *File
}

// View supplies the current filtered/sorted rows for local serialization.
// *tabular.ViewController satisfies it.
type View interface {
	Columns() []string
	FilteredRows() [][]tabular.Scalar
}

// Delegate performs server-side full-dataset exports.
type Delegate interface {
	ExportDataset(ctx context.Context, req Request) (*File, error)
}

// Coordinator runs at most one export job at a time per view. A second
// request while one is pending is rejected with apperrors.ErrExportInFlight
// so the caller can tell the user, rather than racing two jobs against one
// progress indicator.
type Coordinator struct {
	delegate     Delegate
	excelTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu    sync.Mutex
	state string
}

// NewCoordinator creates a coordinator. excelTimeout <= 0 selects
// DefaultExcelTimeout.
func NewCoordinator(delegate Delegate, excelTimeout time.Duration, logger *zap.Logger) *Coordinator {
	if excelTimeout <= 0 {
		excelTimeout = DefaultExcelTimeout
	}
	return &Coordinator{
		delegate:     delegate,
		excelTimeout: excelTimeout,
		logger:       logger,
		now:          time.Now,
		state:        StateIdle,
	}
}

// State returns the coordinator's current state.
func (c *Coordinator) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs one export to completion. The returned job carries the
// terminal state; the coordinator itself returns to idle before Start
// returns, whatever the outcome.
func (c *Coordinator) Start(ctx context.Context, req Request, view View) (*Job, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, apperrors.ErrExportInFlight
	}
	c.state = StateRequested
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	job := &Job{ID: uuid.New(), Request: req, State: StateRequested}

	if req.Format != exportfile.FormatCSV && req.Format != exportfile.FormatExcel {
		job.State = StateFailed
		job.Message = fmt.Sprintf("unsupported export format %q", req.Format)
		return job, nil
	}

	switch {
	case req.Scope == ScopeCurrent && req.Format == exportfile.FormatCSV:
		c.localCSV(job, view)
	case req.Scope == ScopeCurrent:
		// Excel cannot be built locally; bounded server round-trip.
		timeoutCtx, cancel := context.WithTimeout(ctx, c.excelTimeout)
		defer cancel()
		c.delegated(timeoutCtx, job)
	case req.Scope == ScopeComplete:
		c.delegated(ctx, job)
	default:
		job.State = StateFailed
		job.Message = fmt.Sprintf("unsupported export scope %q", req.Scope)
	}

	return job, nil
}

// localCSV serializes the view's complete filtered set, all pages, without
// any network call.
func (c *Coordinator) localCSV(job *Job, view View) {
	if view == nil {
		job.State = StateFailed
		job.Message = "no view loaded to export"
		return
	}
	data, err := exportfile.WriteCSV(view.Columns(), view.FilteredRows())
	if err != nil {
		job.State = StateFailed
		job.Message = "Export failed. Please try again or contact support."
		c.logger.Error("local CSV export failed", zap.Error(err))
		return
	}
	job.State = StateSuccess
	job.File = &File{
		Name:        c.filename(job.Request),
		ContentType: "text/csv",
		Data:        data,
	}
}

func (c *Coordinator) delegated(ctx context.Context, job *Job) {
	file, err := c.delegate.ExportDataset(ctx, job.Request)
	switch {
	case err == nil:
		file.Name = c.filename(job.Request)
		job.State = StateSuccess
		job.File = file
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, apperrors.ErrExportTimeout):
		// Timed-out jobs are reported, never retried automatically.
		job.State = StateTimedOut
		job.Message = "Export timed out. Try filtering your data to reduce the result set."
		c.logger.Warn("export timed out",
			zap.String("scope", job.Request.Scope),
			zap.String("format", job.Request.Format))
	default:
		job.State = StateFailed
		job.Message = "Export failed. Please try again or contact support."
		c.logger.Error("export failed", zap.Error(err))
	}
}

// filename resolves the download name: the request's name or a timestamped
// default, with the format's extension appended once.
func (c *Coordinator) filename(req Request) string {
	name := strings.TrimSpace(req.Filename)
	if name == "" {
		name = exportfile.DefaultFilename(c.now())
	}
	ext := ".csv"
	if req.Format == exportfile.FormatExcel {
		ext = ".xlsx"
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}
