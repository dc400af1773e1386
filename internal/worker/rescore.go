package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/service"
)

// Rescorer periodically refreshes the feed and reruns the scoring pipeline.
// Scores are recomputed from scratch each cycle, so an edited or deleted
// activity corrects itself on the next tick.
type Rescorer struct {
	scoring   *service.ScoringService
	challenge config.ChallengeConfig
	config    *config.RescoreConfig
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewRescorer creates a new rescoring worker
func NewRescorer(
	scoring *service.ScoringService,
	challenge config.ChallengeConfig,
	cfg *config.RescoreConfig,
	logger *slog.Logger,
) *Rescorer {
	return &Rescorer{
		scoring:   scoring,
		challenge: challenge,
		config:    cfg,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background rescoring process
func (w *Rescorer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("rescore worker started", "interval", w.config.Interval, "track", w.config.Track)

	go w.run(ctx)
	return nil
}

// Stop stops the background rescoring process
func (w *Rescorer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("rescore worker stopped")
	return nil
}

// run is the main worker loop
func (w *Rescorer) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.rescore(ctx)
		}
	}
}

// rescore runs one tracking and scoring cycle
func (w *Rescorer) rescore(ctx context.Context) {
	w.logger.Info("starting rescore cycle")
	startTime := time.Now()

	if w.config.Track {
		if err := w.scoring.Track(ctx); err != nil {
			// A failed fetch still leaves the stored activities scoreable.
			w.logger.Error("failed to track club feed", "error", err)
		}
	}

	window, err := w.challenge.Window(time.Now())
	if err != nil {
		w.logger.Error("failed to build scoring window", "error", err)
		return
	}

	run, err := w.scoring.Run(ctx, window)
	if err != nil {
		w.logger.Error("rescore cycle failed", "error", err)
		return
	}

	w.logger.Info("rescore cycle completed",
		"run_id", run.ID,
		"duration", time.Since(startTime),
		"teams", len(run.Standings),
	)
}

// IsRunning returns whether the worker is currently running
func (w *Rescorer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single rescore cycle (useful for manual triggers)
func (w *Rescorer) RunOnce(ctx context.Context) {
	w.rescore(ctx)
}
