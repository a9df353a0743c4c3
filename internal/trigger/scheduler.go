package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PassFunc runs one grounding pass over whatever claims are due.
type PassFunc func(ctx context.Context) error

// Scheduler drives the trigger policy on a tick: each tick counts as
// one scan, and when the policy fires, the pass function runs.
//
// Thread Safety: all public methods are thread-safe. The running
// state is protected by a mutex so Start/Stop cannot race.
type Scheduler struct {
	interval time.Duration
	policy   *Policy
	pass     PassFunc
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewScheduler creates a scheduler. It does not start automatically;
// call Start.
func NewScheduler(interval time.Duration, policy *Policy, pass PassFunc, logger *zap.Logger) (*Scheduler, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy cannot be nil")
	}
	if pass == nil {
		return nil, fmt.Errorf("pass function cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval: interval,
		policy:   policy,
		pass:     pass,
		logger:   logger,
	}, nil
}

// Start begins the background loop. Idempotent: starting a running
// scheduler returns an error without spawning a second goroutine.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.stopCh = make(chan struct{})
	s.running = true

	s.logger.Info("grounding scheduler started", zap.Duration("interval", s.interval))
	go s.run()
	return nil
}

// Stop signals the loop to exit. Calling Stop on a stopped scheduler
// is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.logger.Info("stopping grounding scheduler")
	s.running = false
	close(s.stopCh)
}

func (s *Scheduler) run() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler goroutine panicked, recovering",
				zap.Any("panic", r),
				zap.Stack("stack"))
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.observe()
		case <-s.stopCh:
			return
		}
	}
}

// observe counts one scan and runs a pass when the policy fires. A
// panicking or failing pass is logged and the loop continues.
func (s *Scheduler) observe() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("grounding pass panicked, continuing scheduler",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	d := s.policy.ObserveScan()
	if !d.Fire {
		s.logger.Debug("grounding pass deferred", zap.Strings("reasons", d.Reasons))
		return
	}

	s.logger.Info("grounding pass triggered", zap.Strings("reasons", d.Reasons))
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if err := s.pass(ctx); err != nil {
		s.logger.Error("grounding pass failed", zap.Error(err))
	}
}
