package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	errs      []error
	calls     int
	keys      []string
	exchanges []string
	bodies    [][]byte
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.calls++
	f.keys = append(f.keys, key)
	f.exchanges = append(f.exchanges, exchange)
	f.bodies = append(f.bodies, msg.Body)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func newFakeClient(ch *fakeChannel) (*Client, *[]time.Duration) {
	var slept []time.Duration
	return &Client{
		channel:      ch,
		exchangeName: "tricount",
		queueName:    "registry_exports",
		sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}, &slept
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{15, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection error", errors.New("connection refused"), true},
		{"closed connection error", errors.New("connection closed"), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"closed network connection error", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestClient_NotifyExported(t *testing.T) {
	ch := &fakeChannel{}
	client, slept := newFakeClient(ch)

	if err := client.NotifyExported(context.Background(), "run-1", "abc", 1, "Test Trip", "/out/test_trip_1.xlsx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.calls != 1 || ch.keys[0] != EventExported || ch.exchanges[0] != "tricount" || len(*slept) != 0 {
		t.Fatalf("unexpected publish: calls=%d keys=%v exchanges=%v", ch.calls, ch.keys, ch.exchanges)
	}
	msg, err := ExportMessageFromJSON(ch.bodies[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Identifier != "abc" || msg.RegistryID != 1 || msg.Ref != "/out/test_trip_1.xlsx" || msg.RunID != "run-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestClient_PublishRetriesConnectionErrors(t *testing.T) {
	ch := &fakeChannel{errs: []error{errors.New("connection refused"), errors.New("unexpected EOF")}}
	client, slept := newFakeClient(ch)

	if err := client.NotifyFailed(context.Background(), "run-1", "abc", "fetch", errors.New("status 404")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", ch.calls)
	}
	if len(*slept) != 2 || (*slept)[0] != time.Second || (*slept)[1] != 2*time.Second {
		t.Fatalf("unexpected backoff: %v", *slept)
	}
	if ch.keys[2] != EventFailed {
		t.Fatalf("unexpected routing key %q", ch.keys[2])
	}
}

func TestClient_PublishGivesUp(t *testing.T) {
	refused := errors.New("connection refused")
	ch := &fakeChannel{errs: []error{refused, refused, refused, refused}}
	client, _ := newFakeClient(ch)

	err := client.NotifyFailed(context.Background(), "r", "abc", "parse", nil)
	if !errors.Is(err, refused) || ch.calls != maxPublishAttempts {
		t.Fatalf("err=%v calls=%d", err, ch.calls)
	}
}

func TestClient_PublishDoesNotRetryOtherErrors(t *testing.T) {
	denied := errors.New("access refused: exchange not found")
	ch := &fakeChannel{errs: []error{denied}}
	client, _ := newFakeClient(ch)

	if err := client.NotifyExported(context.Background(), "r", "abc", 1, "", ""); !errors.Is(err, denied) || ch.calls != 1 {
		t.Fatalf("err=%v calls=%d", err, ch.calls)
	}
}

func TestNewFailedMessage(t *testing.T) {
	msg := NewFailedMessage("run-9", "abc", "export", errors.New("disk full"))
	if msg.Event != EventFailed || msg.Error != "disk full" || msg.Stage != "export" || msg.Timestamp.IsZero() {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if NewFailedMessage("r", "x", "fetch", nil).Error != "" {
		t.Fatal("nil cause should leave error empty")
	}
}

func TestExportMessage_InvalidJSON(t *testing.T) {
	if _, err := ExportMessageFromJSON([]byte("{")); err == nil {
		t.Fatal("expected error")
	}
}
