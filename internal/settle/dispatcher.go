package settle

import (
	"errors"
	"fmt"
	"sync"

	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

// ErrQueueFull is returned when the dispatcher cannot accept another
// payout without blocking the ledger.
var ErrQueueFull = errors.New("payout queue full")

// Dispatcher decouples payout execution from the booking path: Transfer
// enqueues and returns immediately, a single worker drains the queue
// against the backend. Order of payouts is preserved. Failures cannot
// reach the booking receipt anymore at that point; they are logged and
// counted instead.
type Dispatcher struct {
	backend Transferer
	queue   chan Record
	log     *logger.Logger

	mu       sync.Mutex
	failures int

	done chan struct{}
}

// Transferer is the backend a Dispatcher drains into. It mirrors the
// ledger-side interface so backends can also be used directly.
type Transferer interface {
	Transfer(to types.AccountID, amount types.Amount) error
}

// NewDispatcher starts a Dispatcher over backend with the given queue
// capacity. log may be nil. Close must be called to drain and stop.
func NewDispatcher(backend Transferer, queueSize int, log *logger.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		backend: backend,
		queue:   make(chan Record, queueSize),
		log:     log,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		if err := d.backend.Transfer(rec.To, rec.Amount); err != nil {
			d.mu.Lock()
			d.failures++
			d.mu.Unlock()
			if d.log != nil {
				d.log.Error(fmt.Sprintf("payout of %d to %s failed: %v", rec.Amount, rec.To, err))
			}
		}
	}
}

// Transfer enqueues the payout. It fails only when the queue is full.
func (d *Dispatcher) Transfer(to types.AccountID, amount types.Amount) error {
	select {
	case d.queue <- Record{To: to, Amount: amount}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Failures returns the number of payouts the backend rejected.
func (d *Dispatcher) Failures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failures
}

// Close stops accepting payouts, drains the queue, and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
