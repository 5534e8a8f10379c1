package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stayfinder/internal/domain/shared/events"
)

type testEvent struct {
	Aggregate string    `json:"aggregate"`
	At        time.Time `json:"at"`
}

func (e testEvent) EventName() string     { return "booking.test_event" }
func (e testEvent) AggregateID() string   { return e.Aggregate }
func (e testEvent) OccurredAt() time.Time { return e.At }

type collectingOutbox struct {
	records []EventRecord
}

func (c *collectingOutbox) Add(ctx context.Context, record EventRecord) error {
	c.records = append(c.records, record)
	return nil
}

func (c *collectingOutbox) Flush(ctx context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	encoder := JSONEventEncoder{IDGenerator: func() string { return "fixed-id" }}

	rec, err := encoder.Encode(testEvent{Aggregate: "a1", At: at})
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if rec.ID != "fixed-id" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Name != "booking.test_event" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Aggregate != "a1" {
		t.Errorf("Aggregate = %q", rec.Aggregate)
	}
	if !rec.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v", rec.OccurredAt)
	}
	var decoded testEvent
	if err := json.Unmarshal(rec.Payload, &decoded); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if decoded.Aggregate != "a1" {
		t.Errorf("payload aggregate = %q", decoded.Aggregate)
	}
}

func TestRecordDomainEvents(t *testing.T) {
	box := &collectingOutbox{}
	evs := []events.DomainEvent{
		testEvent{Aggregate: "a1", At: time.Now()},
		testEvent{Aggregate: "a2", At: time.Now()},
	}
	if err := RecordDomainEvents(context.Background(), box, nil, evs); err != nil {
		t.Fatalf("RecordDomainEvents error = %v", err)
	}
	if len(box.records) != 2 {
		t.Fatalf("records = %d, want 2", len(box.records))
	}
	if box.records[0].ID == box.records[1].ID {
		t.Error("record ids not unique")
	}
}

func TestRecordDomainEventsNilBoxIsNoop(t *testing.T) {
	if err := RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{testEvent{}}); err != nil {
		t.Errorf("nil outbox should be a no-op, got %v", err)
	}
}
