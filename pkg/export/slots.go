package export

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Slots hands out one Coordinator per caller. The one-job-in-flight rule
// applies within a caller's slot only: one user's pending export never
// rejects another user's.
type Slots struct {
	delegate     Delegate
	excelTimeout time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	coords map[string]*Coordinator
}

// NewSlots creates the slot registry. excelTimeout is handed to every
// coordinator it creates; <= 0 selects DefaultExcelTimeout.
func NewSlots(delegate Delegate, excelTimeout time.Duration, logger *zap.Logger) *Slots {
	return &Slots{
		delegate:     delegate,
		excelTimeout: excelTimeout,
		logger:       logger,
		coords:       make(map[string]*Coordinator),
	}
}

// For returns the caller's coordinator, creating it on first use. Callers
// are identified by their token subject; callers with an empty identity
// share a single slot.
func (s *Slots) For(caller string) *Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	coord, ok := s.coords[caller]
	if !ok {
		coord = NewCoordinator(s.delegate, s.excelTimeout, s.logger)
		s.coords[caller] = coord
	}
	return coord
}
