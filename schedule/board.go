/*
Package schedule tracks whether the restaurant is currently taking orders.

PURPOSE:
  Runs a background goroutine that re-evaluates the opening hours on a
  configurable interval and exposes the result through a lock-free
  IsOpen check on the request hot path. Order placement outside opening
  hours is rejected at the API edge; loyalty reads and redemptions stay
  available around the clock.

DESIGN:
  - Background goroutine with a ticker and a stop channel
  - The open/closed decision is recomputed on every tick and cached in
    an atomic flag, so handlers never touch the clock or a mutex
  - Hours live on the server's local clock; CloseHour 24 means midnight
  - Open == Close means never open (maintenance mode)

USAGE:
  board := schedule.NewBoard(9, 22, 30*time.Second, logger)
  board.Start()
  // ... later
  board.Stop()

SEE ALSO:
  - api/handlers.go: CreateOrder checks board.IsOpen()
  - config/config.go: [schedule] section
*/
package schedule

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Board answers "are we taking orders right now?".
type Board struct {
	OpenHour      int
	CloseHour     int
	CheckInterval time.Duration

	open   atomic.Bool
	now    func() time.Time
	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBoard creates a board for the given opening hours. Hours are 24h
// local time; openHour is inclusive, closeHour exclusive.
func NewBoard(openHour, closeHour int, checkInterval time.Duration, log *zap.Logger) *Board {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := &Board{
		OpenHour:      openHour,
		CloseHour:     closeHour,
		CheckInterval: checkInterval,
		now:           time.Now,
		log:           log,
	}
	b.open.Store(b.withinHours(b.now()))
	return b
}

// IsOpen reports the cached open/closed state. Safe on the hot path.
func (b *Board) IsOpen() bool {
	return b.open.Load()
}

// Hours returns the configured opening window.
func (b *Board) Hours() (open, close int) {
	return b.OpenHour, b.CloseHour
}

// Start begins the background clock checks.
func (b *Board) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ticker != nil {
		return
	}

	b.ticker = time.NewTicker(b.CheckInterval)
	b.stop = make(chan struct{})
	b.wg.Add(1)
	go b.run(b.ticker, b.stop)

	b.log.Info("schedule board started",
		zap.Int("open_hour", b.OpenHour),
		zap.Int("close_hour", b.CloseHour),
		zap.Duration("check_interval", b.CheckInterval),
	)
}

// Stop halts the background checks and waits for the goroutine to exit.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ticker != nil {
		b.ticker.Stop()
		close(b.stop)
		b.wg.Wait()
		b.ticker = nil
		b.log.Info("schedule board stopped")
	}
}

// run takes its ticker and stop channel as arguments so that each
// Start/Stop cycle gets a fresh pair.
func (b *Board) run(ticker *time.Ticker, stop chan struct{}) {
	defer b.wg.Done()

	// Evaluate immediately on start.
	b.refresh()

	for {
		select {
		case <-ticker.C:
			b.refresh()
		case <-stop:
			return
		}
	}
}

// refresh recomputes the open flag and logs only on transitions.
func (b *Board) refresh() {
	next := b.withinHours(b.now())
	prev := b.open.Swap(next)
	if prev != next {
		if next {
			b.log.Info("now accepting orders", zap.Int("open_hour", b.OpenHour))
		} else {
			b.log.Info("closed for orders", zap.Int("close_hour", b.CloseHour))
		}
	}
}

func (b *Board) withinHours(t time.Time) bool {
	h := t.Hour()
	switch {
	case b.OpenHour == b.CloseHour:
		return false
	case b.OpenHour < b.CloseHour:
		return h >= b.OpenHour && h < b.CloseHour
	default:
		// Overnight window, e.g. 22-6.
		return h >= b.OpenHour || h < b.CloseHour
	}
}
