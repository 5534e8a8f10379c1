package memory

import (
	"context"
	"sync"

	appoutbox "stayfinder/internal/app/outbox"
)

// Outbox buffers event records in memory until flushed. Without a broker the
// flush simply drops them; Drain exists so tests can observe what was
// recorded.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = nil
	return nil
}

// Drain returns and clears all buffered records.
func (o *Outbox) Drain() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.records
	o.records = nil
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
