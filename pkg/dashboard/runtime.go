package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

// Widget render states.
const (
	StateReady       = "ready"
	StateUnavailable = "unavailable"
	StateFailed      = "failed"
)

// PlaceholderUnavailable is the inline placeholder for a widget whose query
// cannot be resolved. Missing and forbidden queries produce this exact same
// text so the template reveals nothing about queries outside the caller's
// authorization.
const PlaceholderUnavailable = "Query not found"

// ErrInertControl reports a control change for a query no widget is bound
// to.
var ErrInertControl = errors.New("filter control is not bound to any widget")

// Condition is one control-derived filter on a bound query. Conditions for
// a query are conjunctive.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Executor runs a bound query with the active control-derived filter set.
// It is expected to return apperrors.ErrNotFound for a query that does not
// exist and apperrors.ErrForbidden for one the caller may not access; the
// binder renders both identically.
type Executor interface {
	ExecuteBound(ctx context.Context, queryID int64, conditions []Condition) (*models.QueryResult, error)
}

// WidgetUpdate is delivered to the render callback whenever a bound
// query's presentation changes. Widgets sharing a QueryID receive the same
// update, so they can never display divergent snapshots.
type WidgetUpdate struct {
	QueryID     int64
	State       string
	Result      *models.QueryResult
	Placeholder string
}

// FilterObserver is notified exactly once per control change with the
// resolved binding, before the query re-executes.
type FilterObserver func(queryID int64, column, operator, value string)

// querySlot is the single source of truth for one bound query. Its mutex
// serializes re-executions so widgets sharing the query update atomically;
// seq discards responses that were superseded while in flight.
type querySlot struct {
	mu         sync.Mutex
	seq        uint64
	conditions map[string]Condition
}

// Binder wires resolved directives to live query execution. Distinct
// queries render independently and concurrently; widgets sharing a query
// serialize through one slot.
type Binder struct {
	exec     Executor
	onUpdate func(WidgetUpdate)
	observer FilterObserver
	logger   *zap.Logger

	mu    sync.Mutex
	slots map[int64]*querySlot
}

// NewBinder creates a binder delivering widget updates to onUpdate.
func NewBinder(exec Executor, onUpdate func(WidgetUpdate), logger *zap.Logger) *Binder {
	return &Binder{
		exec:     exec,
		onUpdate: onUpdate,
		logger:   logger,
		slots:    make(map[int64]*querySlot),
	}
}

// SetFilterObserver registers the per-change filter callback.
func (b *Binder) SetFilterObserver(obs FilterObserver) { b.observer = obs }

// Bind installs the directives and renders every bound query once. Queries
// render concurrently with respect to each other; Bind returns when all
// initial renders finish or ctx is canceled.
func (b *Binder) Bind(ctx context.Context, directives []BindingDirective) {
	b.mu.Lock()
	for _, d := range directives {
		if d.Kind != KindWidget {
			continue
		}
		if _, ok := b.slots[d.QueryID]; !ok {
			b.slots[d.QueryID] = &querySlot{conditions: make(map[string]Condition)}
		}
	}
	ids := make([]int64, 0, len(b.slots))
	for id := range b.slots {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(queryID int64) {
			defer wg.Done()
			b.refresh(ctx, queryID)
		}(id)
	}
	wg.Wait()
}

// OnControlChange folds one control change into the query's conjunctive
// filter set and re-executes only that query. An empty value removes the
// column's filter. Returns ErrInertControl when no widget is bound to the
// query.
func (b *Binder) OnControlChange(ctx context.Context, queryID int64, column, operator, value string) error {
	b.mu.Lock()
	slot, ok := b.slots[queryID]
	b.mu.Unlock()
	if !ok {
		return ErrInertControl
	}
	if operator == "" {
		operator = DefaultOperator
	}

	slot.mu.Lock()
	if value == "" {
		delete(slot.conditions, column)
	} else {
		slot.conditions[column] = Condition{Column: column, Operator: operator, Value: value}
	}
	slot.mu.Unlock()

	if b.observer != nil {
		b.observer(queryID, column, operator, value)
	}

	b.refresh(ctx, queryID)
	return nil
}

// Conditions returns the active filter set for a bound query, for tests
// and for re-binding after navigation.
func (b *Binder) Conditions(queryID int64) []Condition {
	b.mu.Lock()
	slot, ok := b.slots[queryID]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return conditionList(slot.conditions)
}

// refresh re-executes one bound query and publishes the outcome. A stale
// response (superseded while in flight, or arriving after ctx cancellation)
// is dropped without publishing, so a torn-down view is never mutated.
func (b *Binder) refresh(ctx context.Context, queryID int64) {
	slot := b.slot(queryID)
	if slot == nil {
		return
	}

	slot.mu.Lock()
	slot.seq++
	seq := slot.seq
	conditions := conditionList(slot.conditions)
	slot.mu.Unlock()

	result, err := b.exec.ExecuteBound(ctx, queryID, conditions)

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if seq != slot.seq || ctx.Err() != nil {
		return
	}

	switch {
	case err == nil:
		b.publish(WidgetUpdate{QueryID: queryID, State: StateReady, Result: result})
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrForbidden):
		b.publish(WidgetUpdate{QueryID: queryID, State: StateUnavailable, Placeholder: PlaceholderUnavailable})
	default:
		b.logger.Warn("bound query execution failed",
			zap.Int64("query_id", queryID),
			zap.Error(err))
		b.publish(WidgetUpdate{
			QueryID:     queryID,
			State:       StateFailed,
			Placeholder: fmt.Sprintf("Query %d failed to load", queryID),
		})
	}
}

func (b *Binder) publish(u WidgetUpdate) {
	if b.onUpdate != nil {
		b.onUpdate(u)
	}
}

func (b *Binder) slot(queryID int64) *querySlot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots[queryID]
}

func conditionList(m map[string]Condition) []Condition {
	out := make([]Condition, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
