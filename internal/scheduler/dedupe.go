// Package scheduler runs periodic background maintenance.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TagDeduper repairs duplicate tags in the registry.
type TagDeduper interface {
	DeduplicateAll() (int, error)
}

// DedupeScheduler periodically re-runs the tag dedupe sweep. The sweep
// at process start repairs what earlier runs left behind; the scheduled
// sweeps cover duplicates created while the process is up.
type DedupeScheduler struct {
	deduper  TagDeduper
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	cancelFunc context.CancelFunc
}

// NewDedupeScheduler creates a scheduler that runs the sweep on the
// given cron schedule (standard five-field format).
func NewDedupeScheduler(deduper TagDeduper, schedule string) *DedupeScheduler {
	return &DedupeScheduler{
		deduper:  deduper,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *DedupeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid dedupe schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Tag dedupe scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *DedupeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Tag dedupe scheduler: stopped")
}

// RunNow triggers an immediate sweep.
func (s *DedupeScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *DedupeScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur.
func (s *DedupeScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *DedupeScheduler) runSweep() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Printf("Tag dedupe: skipped (sweep already running)")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweeping = false
		s.mu.Unlock()
	}()

	start := time.Now()
	merged, err := s.deduper.DeduplicateAll()
	if err != nil {
		log.Printf("Tag dedupe: sweep failed: %v", err)
		return
	}
	if merged > 0 {
		log.Printf("Tag dedupe: merged %d duplicate groups in %v", merged, time.Since(start).Round(time.Millisecond))
	}
}
