package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/battlesim/internal/battle"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
)

const defaultInterval = time.Second

// StatusSink receives every status sample.
type StatusSink interface {
	OnStatus(s core.ArmyStatus)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger   *slog.Logger
	Clock    clockwork.Clock
	Interval time.Duration
	Sink     StatusSink
}

// Service periodically samples the strength of every army in a battle.
type Service struct {
	deps   Dependencies
	armies []*battle.Army

	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies, armies []*battle.Army) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	return &Service{
		deps:   deps,
		armies: armies,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample takes one status reading per army, logs it and hands it to the sink.
func (s *Service) Sample() []core.ArmyStatus {
	now := s.deps.Clock.Now()
	out := make([]core.ArmyStatus, 0, len(s.armies))
	for _, a := range s.armies {
		st := a.Status(now)
		out = append(out, st)

		s.deps.Logger.Debug("army status",
			"army", st.Army,
			"activeSquads", st.ActiveSquads,
			"totalSquads", st.TotalSquads,
			"activeUnits", st.ActiveUnits,
			"totalHealth", st.TotalHealth,
		)
		if s.deps.Sink != nil {
			s.deps.Sink.OnStatus(st)
		}
	}
	return out
}

// Start starts the status monitor goroutine. It stops on Stop or when ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	ticker := s.deps.Clock.NewTicker(s.deps.Interval)
	s.mu.Unlock()

	go func() {
		defer func() {
			ticker.Stop()
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.Chan():
				s.Sample()
			}
		}
	}()
}

// Stop stops the status monitor and waits for its goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
}
