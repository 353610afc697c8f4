package hw

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
)

// Blinker toggles the indicator LED on its own goroutine. It shares the
// hardware bus with the control loop; each SetLED is one atomic bus
// transaction, so no further coordination is needed. Transient bus faults
// skip a blink and the next one retries.
type Blinker struct {
	led    LEDController
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewBlinker returns a stopped blinker toggling every period.
func NewBlinker(led LEDController, period time.Duration) *Blinker {
	return &Blinker{led: led, period: period}
}

// SetBlinking starts or stops the blink loop. Idempotent.
func (b *Blinker) SetBlinking(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if on == (b.cancel != nil) {
		return
	}

	if !on {
		b.cancel()
		b.cancel = nil
		if err := b.led.SetLED(false); err != nil {
			log.Warn("led off failed", "err", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.run(ctx)
}

func (b *Blinker) run(ctx context.Context) {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	lit := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lit = !lit
			if err := b.led.SetLED(lit); err != nil {
				log.Warn("blink skipped", "err", err)
			}
		}
	}
}
