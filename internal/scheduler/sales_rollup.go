package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/remote"
)

// RollupPath is where the aggregated sales summary is published.
const RollupPath = "analytics/sales"

// RollupConfig controls the periodic sales aggregation job.
type RollupConfig struct {
	Enabled  bool
	Schedule string
}

// SalesRollupScheduler periodically aggregates the order ledger into a
// sales summary and publishes it to the remote store for dashboards.
type SalesRollupScheduler struct {
	ledger *orders.Ledger
	store  remote.Store
	config RollupConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewSalesRollupScheduler creates a new scheduler instance
func NewSalesRollupScheduler(ledger *orders.Ledger, store remote.Store, config RollupConfig) *SalesRollupScheduler {
	return &SalesRollupScheduler{
		ledger: ledger,
		store:  store,
		config: config,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the rollup is enabled
func (s *SalesRollupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Sales rollup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runRollup()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sales rollup: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Sales rollup scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *SalesRollupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Sales rollup scheduler: stopped")
}

// RunNow triggers an immediate rollup
func (s *SalesRollupScheduler) RunNow() error {
	go s.runRollup()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *SalesRollupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next rollup will occur
func (s *SalesRollupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	for _, entry := range entries {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runRollup aggregates the ledger and publishes the summary
func (s *SalesRollupScheduler) runRollup() {
	startTime := time.Now()
	summary := s.ledger.Sales()

	books := make(map[string]any, len(summary.Books))
	for _, b := range summary.Books {
		books[b.BookID] = map[string]any{
			"title":   b.Title,
			"count":   b.Count,
			"revenue": b.Revenue,
		}
	}
	record := map[string]any{
		"totalRevenue": summary.TotalRevenue,
		"totalOrders":  summary.TotalOrders,
		"books":        books,
		"generatedAt":  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.store.Write(ctx, RollupPath, record); err != nil {
		log.Printf("Sales rollup: failed to publish summary: %v", err)
		return
	}

	log.Printf("Sales rollup: published %d orders totalling %.2f in %v",
		summary.TotalOrders, summary.TotalRevenue, time.Since(startTime).Round(time.Millisecond))
}
