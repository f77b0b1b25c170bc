// Package settle moves booking deposits to room owners. The ledger
// commits booking state first and calls a Transferer after, so every
// implementation here treats a transfer as fire-once: failures are
// reported back as errors for the caller to surface, never retried
// into a double payout.
package settle

import (
	"fmt"
	"sync"
	"time"

	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

// Record is one dispatched payout.
type Record struct {
	To        types.AccountID `json:"to"`
	Amount    types.Amount    `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Recorder is the default settlement backend: payouts are recorded
// in memory and logged, without touching any external system. Nodes
// without a payout agent configured run with this.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	log     *logger.Logger
}

// NewRecorder creates a Recorder. log may be nil.
func NewRecorder(log *logger.Logger) *Recorder {
	return &Recorder{log: log}
}

// Transfer records the payout. It never fails.
func (r *Recorder) Transfer(to types.AccountID, amount types.Amount) error {
	r.mu.Lock()
	r.records = append(r.records, Record{To: to, Amount: amount, Timestamp: time.Now()})
	r.mu.Unlock()

	if r.log != nil {
		r.log.Info(fmt.Sprintf("payout of %d to %s recorded (no agent configured)", amount, to))
	}
	return nil
}

// Recent returns the most recent n payouts, newest first.
func (r *Recorder) Recent(n int) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.records) {
		n = len(r.records)
	}
	result := make([]Record, n)
	for i := 0; i < n; i++ {
		result[i] = r.records[len(r.records)-1-i]
	}
	return result
}
