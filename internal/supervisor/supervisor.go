package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"go.uber.org/zap"
)

// SupervisorConfig holds configuration for the supervisor
type SupervisorConfig struct {
	ShutdownTimeout time.Duration
}

// DefaultSupervisorConfig returns default configuration
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		ShutdownTimeout: constants.DefaultShutdownTimeout,
	}
}

// Supervisor owns the fixed set of Source Readers. Sources are started once
// and never restarted; a source that terminates stays terminated until the
// hub itself exits.
type Supervisor struct {
	mu sync.RWMutex

	supConfig SupervisorConfig
	// sources maps source names to their readers
	sources map[string]*ManagedSource
	// order keeps the configured (sorted) source order for listings
	order  []string
	logger *zap.Logger

	startedAt time.Time
	// state is "stopped", "running" or "stopping"
	state string
}

// New creates a supervisor for the given sources. Every event they produce
// goes to publisher.
func New(sources []domain.SourceConfig, publisher Publisher, runner ProcessRunner, supConfig SupervisorConfig, logger *zap.Logger) *Supervisor {
	if runner == nil {
		runner = NewExecRunner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("supervisor")

	s := &Supervisor{
		supConfig: supConfig,
		sources:   make(map[string]*ManagedSource, len(sources)),
		order:     make([]string, 0, len(sources)),
		logger:    logger,
		state:     "stopped",
	}
	for _, src := range sources {
		s.sources[src.Name] = NewManagedSource(src, runner, publisher, logger)
		s.order = append(s.order, src.Name)
	}
	return s
}

// Start launches every source concurrently. A source that fails to launch is
// recorded in the result; it never prevents the others from starting.
func (s *Supervisor) Start(ctx context.Context) (StartResult, error) {
	result := StartResult{
		Failed: make(map[string]error),
	}

	s.mu.Lock()
	if s.state != "stopped" || !s.startedAt.IsZero() {
		s.mu.Unlock()
		return result, fmt.Errorf("supervisor already started")
	}
	s.state = "running"
	s.startedAt = time.Now()
	sources := s.orderedLocked()
	s.mu.Unlock()

	var wg sync.WaitGroup
	var resultMu sync.Mutex

	for _, src := range sources {
		wg.Add(1)
		go func(src *ManagedSource) {
			defer wg.Done()
			err := src.Start(ctx)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				result.Failed[src.Name()] = err
				return
			}
			result.Started = append(result.Started, src.Name())
		}(src)
	}
	wg.Wait()

	s.logger.Info("sources started",
		zap.Int("started", len(result.Started)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

// Stop terminates every running source concurrently
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != "running" {
		s.mu.Unlock()
		return nil
	}
	s.state = "stopping"
	sources := s.orderedLocked()
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.supConfig.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src *ManagedSource) {
			defer wg.Done()
			if err := src.Stop(shutdownCtx); err != nil && err != domain.ErrSourceNotRunning {
				s.logger.Warn("error stopping source", zap.String("source", src.Name()), zap.Error(err))
			}
		}(src)
	}
	wg.Wait()

	s.mu.Lock()
	s.state = "stopped"
	s.mu.Unlock()

	s.logger.Info("all sources stopped")
	return nil
}

// Sources returns info for all sources in configured order
func (s *Supervisor) Sources() []domain.SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SourceInfo, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.sources[name].Info())
	}
	return result
}

// Source returns info for a specific source
func (s *Supervisor) Source(name string) (domain.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[name]
	if !ok {
		return domain.SourceInfo{}, domain.ErrSourceNotFound
	}
	return src.Info(), nil
}

// SourceNames returns the configured source names in order
func (s *Supervisor) SourceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Status returns supervisor status
func (s *Supervisor) Status() SupervisorStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SupervisorStatus{
		State:     s.state,
		StartedAt: s.startedAt,
		Total:     len(s.sources),
	}
	for _, src := range s.sources {
		if src.State().IsRunning() {
			status.Running++
		}
	}
	return status
}

// Wait blocks until every source has emitted its lifecycle event or ctx ends
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.RLock()
	sources := s.orderedLocked()
	s.mu.RUnlock()

	for _, src := range sources {
		select {
		case <-src.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Supervisor) orderedLocked() []*ManagedSource {
	sources := make([]*ManagedSource, 0, len(s.order))
	for _, name := range s.order {
		sources = append(sources, s.sources[name])
	}
	return sources
}

// SupervisorStatus holds supervisor status information
type SupervisorStatus struct {
	State     string
	StartedAt time.Time
	Total     int
	Running   int
}

// UptimeSeconds returns seconds since supervisor started
func (st SupervisorStatus) UptimeSeconds() int64 {
	if st.StartedAt.IsZero() {
		return 0
	}
	return int64(time.Since(st.StartedAt).Seconds())
}

// StartResult contains information about source startup results
type StartResult struct {
	Started []string         // Names of sources whose follow process is running
	Failed  map[string]error // Names and errors of sources that failed to launch
}

// HasFailures returns true if any source failed to start
func (r StartResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// AllStarted returns true if every source started
func (r StartResult) AllStarted() bool {
	return len(r.Failed) == 0
}
