package outbox

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeWrapsCloudEvent(t *testing.T) {
	w := &Worker{TopicPrefix: "", Source: "app://stayfinder"}
	occurred := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "ev-1",
		Name:       "booking.attempt_confirmed",
		Payload:    []byte(`{"attempt_id": "a1"}`),
		OccurredAt: occurred,
		Aggregate:  "a1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.envelope(doc)
	if err != nil {
		t.Fatalf("envelope error = %v", err)
	}
	var evt map[string]any
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("envelope not JSON: %v", err)
	}
	if evt["specversion"] != "1.0" {
		t.Errorf("specversion = %v", evt["specversion"])
	}
	if evt["type"] != "booking.attempt_confirmed.v1" {
		t.Errorf("type = %v", evt["type"])
	}
	if evt["source"] != "app://stayfinder" {
		t.Errorf("source = %v", evt["source"])
	}
	if evt["subject"] != "a1" {
		t.Errorf("subject = %v", evt["subject"])
	}
	if evt["traceparent"] != "00-abc-def-01" {
		t.Errorf("traceparent = %v", evt["traceparent"])
	}
	data, ok := evt["data"].(map[string]any)
	if !ok || data["attempt_id"] != "a1" {
		t.Errorf("data = %v", evt["data"])
	}
	if headers["content-type"] != "application/cloudevents+json" {
		t.Errorf("content-type header = %q", headers["content-type"])
	}
	if headers["traceparent"] != "00-abc-def-01" {
		t.Errorf("traceparent header = %q", headers["traceparent"])
	}
}

func TestEnvelopeRejectsNonJSONPayload(t *testing.T) {
	w := &Worker{}
	doc := &EventDocument{ID: "ev-1", Payload: []byte("not json")}
	if _, _, err := w.envelope(doc); err == nil {
		t.Error("envelope accepted malformed payload")
	}
}

func TestTopicPrefix(t *testing.T) {
	if got := (&Worker{}).topic(); got != "booking.events.v1" {
		t.Errorf("topic = %q", got)
	}
	if got := (&Worker{TopicPrefix: "staging."}).topic(); got != "staging.booking.events.v1" {
		t.Errorf("prefixed topic = %q", got)
	}
}

func TestNextRetryBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}}
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 5 * time.Second},
		{2, 30 * time.Second},
		{9, 30 * time.Second},
	}
	for _, tt := range tests {
		before := time.Now()
		next := w.nextRetry(tt.attempts)
		delay := next.Sub(before)
		if delay < tt.want-time.Second || delay > tt.want+time.Second {
			t.Errorf("nextRetry(%d) delay ~= %v, want ~%v", tt.attempts, delay, tt.want)
		}
	}
}

func TestNextRetryDefaultWithoutSchedule(t *testing.T) {
	w := &Worker{}
	delay := time.Until(w.nextRetry(3))
	if delay < 4*time.Second || delay > 6*time.Second {
		t.Errorf("default retry delay ~= %v, want ~5s", delay)
	}
}

func TestWorkerSourceDefault(t *testing.T) {
	if got := (&Worker{}).source(); got != "app://stayfinder" {
		t.Errorf("source = %q", got)
	}
}
