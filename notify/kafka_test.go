package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"foodconnect/models"
)

func TestKafkaWriterDoesNotWaitForBroker(t *testing.T) {
	writer := NewKafkaWriter([]string{"127.0.0.1:1"}, "notifications")
	if !writer.Async {
		t.Fatalf("expected async writer")
	}
	if writer.BatchTimeout != 5*time.Millisecond {
		t.Fatalf("expected 5ms batch timeout, got %s", writer.BatchTimeout)
	}
	if writer.Completion == nil {
		t.Fatalf("expected completion callback to report failed sends")
	}
	if _, ok := writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer, got %T", writer.Balancer)
	}

	k := NewKafka(writer)
	defer k.Close()

	start := time.Now()
	err := k.Publish(context.Background(), NewEvent(7, models.NotifyApplicationReceived, nil))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Publish waited %s for an unreachable broker", elapsed)
	}
}

func TestKafkaMessageKeyedByRecipient(t *testing.T) {
	event := NewEvent(42, models.NotifyCommissionCreated, map[string]interface{}{"commission_id": 3})
	msg, err := message(event)
	if err != nil {
		t.Fatalf("message returned error: %v", err)
	}
	if string(msg.Key) != "42" {
		t.Fatalf("expected key 42, got %q", msg.Key)
	}
	if header(msg, "event_id") != event.ID || header(msg, "kind") != models.NotifyCommissionCreated {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if header(msg, "missing") != "" {
		t.Fatalf("expected empty value for missing header")
	}

	// 发送失败只记录日志
	logFailed([]kafka.Message{msg}, errors.New("broker down"))
	logFailed([]kafka.Message{msg}, nil)
}
