package cutout

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/Shopify/sarama"

	"github.com/janelia-flyem/ndio/ndio"
)

const (
	ActionFetch  = "fetch"
	ActionUpload = "upload"
)

// Activity summarizes one completed fetch or upload.
type Activity struct {
	Action     string         `json:"action"`
	Service    string         `json:"service"`
	Resource   string         `json:"resource"`
	Resolution int            `json:"resolution"`
	Box        ndio.Subvolume `json:"-"`
	Time       *ndio.Span     `json:"-"`
	Bytes      int            `json:"bytes"`
	Blocks     int            `json:"blocks"`
	Elapsed    time.Duration  `json:"-"`
}

// MarshalJSON writes the box as start/stop arrays and the elapsed time in milliseconds.
func (a Activity) MarshalJSON() ([]byte, error) {
	type plain Activity
	msg := struct {
		plain
		Start     ndio.Point3d `json:"start"`
		Stop      ndio.Point3d `json:"stop"`
		TimeStart *int32       `json:"t_start,omitempty"`
		TimeStop  *int32       `json:"t_stop,omitempty"`
		ElapsedMS int64        `json:"elapsed_ms"`
	}{
		plain:     plain(a),
		Start:     a.Box.Start,
		Stop:      a.Box.Stop,
		ElapsedMS: a.Elapsed.Milliseconds(),
	}
	if a.Time != nil {
		msg.TimeStart, msg.TimeStop = &a.Time.Start, &a.Time.Stop
	}
	return json.Marshal(msg)
}

// Notifier is told about completed cutouts.
type Notifier interface {
	Notify(a Activity) error
}

func (c *Client) notify(a Activity) {
	c.mu.RLock()
	n := c.notifier
	c.mu.RUnlock()
	if n == nil {
		return
	}
	if err := n.Notify(a); err != nil {
		ndio.Errorf("unable to publish %s activity for %s: %v\n", a.Action, a.Resource, err)
	}
}

// KafkaMaxMessageSize is the max message size in bytes for a Kafka message.
const KafkaMaxMessageSize = 980 * ndio.Kilo

// KafkaConfig is the [kafka] section of a client configuration.
type KafkaConfig struct {
	Servers       []string `toml:"servers"`
	TopicActivity string   `toml:"topic_activity"`
}

// DefaultActivityTopic is used when no activity topic is configured.
const DefaultActivityTopic = "ndio-activity"

var badTopicChars = regexp.MustCompile(`[^a-zA-Z0-9\._\-]+`)

// KafkaNotifier publishes activity summaries as JSON to a Kafka topic.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotifier connects a synchronous producer to the configured servers.
func NewKafkaNotifier(kc KafkaConfig) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Producer.MaxMessageBytes = KafkaMaxMessageSize
	config.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(kc.Servers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaNotifierWithProducer(producer, kc.TopicActivity), nil
}

// NewKafkaNotifierWithProducer publishes through an existing producer.
func NewKafkaNotifierWithProducer(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultActivityTopic
	}
	topic = badTopicChars.ReplaceAllString(topic, "-")
	ndio.Infof("Kafka topic for cutout activity: %s\n", topic)
	return &KafkaNotifier{producer: producer, topic: topic}
}

// Topic returns the sanitized topic name.
func (k *KafkaNotifier) Topic() string {
	return k.topic
}

// Notify implements Notifier.
func (k *KafkaNotifier) Notify(a Activity) error {
	jsonmsg, err := json.Marshal(a)
	if err != nil {
		return err
	}
	timeKey := sarama.StringEncoder(strconv.FormatInt(time.Now().UnixNano(), 10))
	msg := &sarama.ProducerMessage{Topic: k.topic, Value: sarama.ByteEncoder(jsonmsg), Key: timeKey}
	_, _, err = k.producer.SendMessage(msg)
	return err
}

// Close flushes and closes the producer.
func (k *KafkaNotifier) Close() error {
	if err := k.producer.Close(); err != nil {
		ndio.Errorf("Kafka producer had error on close: %v\n", err)
		return err
	}
	ndio.Infof("Successfully shut down kafka producer.\n")
	return nil
}
