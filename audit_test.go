package credauth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fathallahma/mspr-manager-projet/password"
)

func newAuditedEngine(t *testing.T, store CredentialStore, sink AuditSink) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false

	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithCipherKey(testCipherKey()).
		WithAuditSink(sink).
		WithClock(func() time.Time { return testClock }).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	return engine
}

func TestAuditEventsForAuthentication(t *testing.T) {
	store := newRecordingStore()
	store.Seed(CredentialRecord{
		ID:             "user-1",
		Username:       "alice",
		PasswordDigest: password.Hash("correct-horse"),
		LastActivity:   testClock.AddDate(0, 0, -30),
	})

	sink := NewChannelSink(16)
	engine := newAuditedEngine(t, store, sink)
	ctx := context.Background()

	if _, err := engine.Authenticate(ctx, "alice", "wrong", ""); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := engine.Authenticate(ctx, "alice", "correct-horse", ""); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	engine.Close()

	var events []AuditEvent
	for event := range drained(sink.Events()) {
		events = append(events, event)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}

	failure, success := events[0], events[1]
	if failure.EventType != auditEventAuthFailure || failure.Success {
		t.Fatalf("unexpected failure event: %+v", failure)
	}
	if failure.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("unexpected failure reason: %+v", failure.Metadata)
	}
	if success.EventType != auditEventAuthSuccess || !success.Success {
		t.Fatalf("unexpected success event: %+v", success)
	}
	if success.UserID != "user-1" || success.Username != "alice" {
		t.Fatalf("unexpected success identity: %+v", success)
	}
	if !success.Timestamp.Equal(testClock) {
		t.Fatalf("event timestamp not from the engine clock: %v", success.Timestamp)
	}
}

// drained returns a channel that yields buffered events and closes.
func drained(events <-chan AuditEvent) <-chan AuditEvent {
	out := make(chan AuditEvent)
	go func() {
		defer close(out)
		for {
			select {
			case e := <-events:
				out <- e
			default:
				return
			}
		}
	}()
	return out
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: testClock,
		EventType: auditEventAuthSuccess,
		UserID:    "user-1",
		Username:  "alice",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: testClock,
		EventType: auditEventAuthFailure,
		Username:  "alice",
		Metadata:  map[string]string{"reason": "password_mismatch"},
	})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", lines)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that never returns forces the buffer to fill.
	block := make(chan struct{})
	sink := blockingSink{block: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventAuthFailure})
	}
	if d.Dropped() == 0 {
		t.Fatal("no events dropped with a full buffer and a blocked sink")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	block chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.block
}
