package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stayfinder/internal/app/commands"
)

type memoryIdempotencyStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func newMemoryStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{items: make(map[string]IdempotencyRecord)}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryIdempotencyStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

type testCommand struct {
	BusKey  string
	IdemKey string
}

func (c testCommand) Key() string            { return c.BusKey }
func (c testCommand) IdempotencyKey() string { return c.IdemKey }
func (c testCommand) ResultPrototype() any   { return &testResult{} }

type testResult struct {
	Value string `json:"value"`
}

func idempotentBus(t *testing.T, handled *int) commands.Bus {
	t.Helper()
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.cmd", func(ctx context.Context, cmd commands.Command) (any, error) {
		*handled++
		return &testResult{Value: "created"}, nil
	})
	return ChainCommands(bus, Idempotency(newMemoryStore(), nil))
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	handled := 0
	bus := idempotentBus(t, &handled)
	cmd := testCommand{BusKey: "test.cmd", IdemKey: "key-1"}

	first, err := bus.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first dispatch error = %v", err)
	}
	second, err := bus.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second dispatch error = %v", err)
	}

	if handled != 1 {
		t.Errorf("handler ran %d times, want 1", handled)
	}
	firstRes, ok := first.(*testResult)
	if !ok {
		t.Fatalf("first result type %T", first)
	}
	secondRes, ok := second.(*testResult)
	if !ok {
		t.Fatalf("second result type %T", second)
	}
	if firstRes.Value != secondRes.Value {
		t.Errorf("replayed result %q != original %q", secondRes.Value, firstRes.Value)
	}
}

func TestIdempotencyDistinctKeysRunSeparately(t *testing.T) {
	handled := 0
	bus := idempotentBus(t, &handled)

	if _, err := bus.Dispatch(context.Background(), testCommand{BusKey: "test.cmd", IdemKey: "key-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := bus.Dispatch(context.Background(), testCommand{BusKey: "test.cmd", IdemKey: "key-2"}); err != nil {
		t.Fatal(err)
	}
	if handled != 2 {
		t.Errorf("handler ran %d times, want 2", handled)
	}
}

func TestIdempotencyEmptyKeyBypasses(t *testing.T) {
	handled := 0
	bus := idempotentBus(t, &handled)

	for i := 0; i < 3; i++ {
		if _, err := bus.Dispatch(context.Background(), testCommand{BusKey: "test.cmd"}); err != nil {
			t.Fatal(err)
		}
	}
	if handled != 3 {
		t.Errorf("handler ran %d times, want 3 without idempotency key", handled)
	}
}

func TestIdempotencyReplaysErrors(t *testing.T) {
	handled := 0
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.cmd", func(ctx context.Context, cmd commands.Command) (any, error) {
		handled++
		return nil, errors.New("downstream rejected")
	})
	wrapped := ChainCommands(bus, Idempotency(newMemoryStore(), nil))
	cmd := testCommand{BusKey: "test.cmd", IdemKey: "key-err"}

	if _, err := wrapped.Dispatch(context.Background(), cmd); err == nil {
		t.Fatal("first dispatch succeeded, want error")
	}
	_, err := wrapped.Dispatch(context.Background(), cmd)
	if err == nil {
		t.Fatal("second dispatch succeeded, want replayed error")
	}
	if err.Error() != "downstream rejected" {
		t.Errorf("replayed error = %q, want original message", err)
	}
	if handled != 1 {
		t.Errorf("handler ran %d times, want 1", handled)
	}
}

func TestIdempotencyRecordTimestamps(t *testing.T) {
	store := newMemoryStore()
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.cmd", func(ctx context.Context, cmd commands.Command) (any, error) {
		return &testResult{Value: "v"}, nil
	})
	wrapped := ChainCommands(bus, Idempotency(store, nil))

	before := time.Now().UTC()
	if _, err := wrapped.Dispatch(context.Background(), testCommand{BusKey: "test.cmd", IdemKey: "key-ts"}); err != nil {
		t.Fatal(err)
	}
	rec, ok, err := store.Get(context.Background(), "key-ts")
	if err != nil || !ok {
		t.Fatalf("record not stored (ok=%v err=%v)", ok, err)
	}
	if rec.OccurredAt.Before(before.Add(-time.Second)) {
		t.Errorf("OccurredAt = %v, want near now", rec.OccurredAt)
	}
}
