package kafkax

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if got := SplitBrokers(""); got != nil {
		t.Fatalf("empty input must yield no brokers, got %v", got)
	}
}

func TestHeaderValue(t *testing.T) {
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte("abc")},
		{Key: "event_type", Value: []byte("reminder.due")},
	}
	if got := HeaderValue(headers, "event_type"); got != "reminder.due" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := HeaderValue(headers, "missing"); got != "" {
		t.Fatalf("missing key must yield empty string, got %q", got)
	}
}
