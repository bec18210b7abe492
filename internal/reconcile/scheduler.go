package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"vitrine/internal/logging"
)

// Scheduler runs a set of pollers, one goroutine each.
type Scheduler struct {
	logger  *slog.Logger
	pollers []*Poller

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SchedulerStatus summarizes every poller.
type SchedulerStatus struct {
	Running bool           `json:"running"`
	Pollers []PollerStatus `json:"pollers"`
}

// NewScheduler registers pollers in display order.
func NewScheduler(logger *slog.Logger, pollers ...*Poller) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		pollers: pollers,
	}
}

// Start launches every poller.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	if len(s.pollers) == 0 {
		s.mu.Unlock()
		return errors.New("no pollers configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(len(s.pollers))
	pollers := append([]*Poller(nil), s.pollers...)
	s.mu.Unlock()

	for _, poller := range pollers {
		s.logger.Info("starting poller",
			logging.String(logging.FieldViewer, poller.Name()),
			logging.Duration("interval", poller.Interval()),
		)
		go func(p *Poller) {
			defer s.wg.Done()
			p.Run(runCtx)
		}(poller)
	}
	return nil
}

// Stop cancels all pollers and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("pollers stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Poller looks up a poller by viewer name.
func (s *Scheduler) Poller(name string) *Poller {
	for _, p := range s.pollers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Status reports scheduler and poller state.
func (s *Scheduler) Status() SchedulerStatus {
	status := SchedulerStatus{Running: s.Running()}
	for _, p := range s.pollers {
		status.Pollers = append(status.Pollers, p.Status())
	}
	return status
}
