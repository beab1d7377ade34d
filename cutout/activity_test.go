package cutout

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"

	"github.com/janelia-flyem/ndio/ndio"
)

func TestActivityJSON(t *testing.T) {
	a := Activity{
		Action:     ActionUpload,
		Service:    "boss",
		Resource:   "bossdb://coll/exp/chan",
		Resolution: 1,
		Box:        ndio.NewSubvolume(ndio.Span{10, 20}, ndio.Span{5, 10}, ndio.Span{10, 19}),
		Time:       &ndio.Span{0, 2},
		Bytes:      900,
		Blocks:     1,
		Elapsed:    1500 * time.Millisecond,
	}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	expected := map[string]string{
		"action":     "upload",
		"service":    "boss",
		"resource":   "bossdb://coll/exp/chan",
		"start":      "[10 5 10]",
		"stop":       "[20 10 19]",
		"t_start":    "0",
		"t_stop":     "2",
		"elapsed_ms": "1500",
		"bytes":      "900",
	}
	for key, value := range expected {
		if got := fmt.Sprintf("%v", msg[key]); got != value {
			t.Errorf("activity %q: expected %s, got %s", key, value, got)
		}
	}

	a.Time = nil
	data, _ = json.Marshal(a)
	msg = nil
	json.Unmarshal(data, &msg)
	if _, found := msg["t_start"]; found {
		t.Errorf("spatial activity should not carry a time range: %s", data)
	}
}

func TestKafkaNotifier(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg map[string]interface{}
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg["action"] != ActionFetch || msg["resource"] != "dvid://3f8c/grayscale" {
			return fmt.Errorf("unexpected activity message %s", val)
		}
		return nil
	})

	notifier := NewKafkaNotifierWithProducer(producer, "cutout activity/test")
	if notifier.Topic() != "cutout-activity-test" {
		t.Errorf("expected sanitized topic, got %q", notifier.Topic())
	}
	err := notifier.Notify(Activity{
		Action:   ActionFetch,
		Service:  "dvid",
		Resource: "dvid://3f8c/grayscale",
		Box:      ndio.NewSubvolume(ndio.Span{0, 8}, ndio.Span{0, 8}, ndio.Span{0, 8}),
		Bytes:    512,
		Blocks:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := notifier.Close(); err != nil {
		t.Fatal(err)
	}

	if NewKafkaNotifierWithProducer(mocks.NewSyncProducer(t, config), "").Topic() != DefaultActivityTopic {
		t.Errorf("expected default activity topic")
	}
}
