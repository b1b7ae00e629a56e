package ws

import (
	"time"

	"go.uber.org/zap"
)

// Reaper ends conversations abandoned mid-session. A customer who walks away
// from the tab leaves a live realtime connection open upstream; the reaper
// releases it while keeping the websocket connected.
type Reaper struct {
	hub      *Hub
	maxIdle  time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewReaper creates a reaper sweeping at the given interval.
func NewReaper(hub *Hub, maxIdle, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		hub:      hub,
		maxIdle:  maxIdle,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep.
func (r *Reaper) Start() {
	go r.loop()
	r.logger.Info("Idle session reaper started",
		zap.Duration("maxIdle", r.maxIdle),
		zap.Duration("interval", r.interval))
}

// Stop ends the background sweep.
func (r *Reaper) Stop() {
	close(r.stopChan)
	r.logger.Info("Idle session reaper stopped")
}

func (r *Reaper) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if ended := r.hub.endIdleSessions(r.maxIdle); ended > 0 {
				r.logger.Info("Ended idle conversations", zap.Int("count", ended))
			}
		}
	}
}
