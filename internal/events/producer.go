package events

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OrderCreatedTopic    = "order.created"
	TrackingUpdatedTopic = "order.tracking_updated"
)

// OrderCreatedEvent is the summary published after a checkout lands. The
// persisted order is the source of truth; consumers only drive dashboards.
type OrderCreatedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	UserID    string    `json:"user_id"`
	ReceiptID string    `json:"receipt_id"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	EventTime time.Time `json:"event_time"`
}

type TrackingUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Courier   string    `json:"courier,omitempty"`
	EventTime time.Time `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) PublishOrderCreated(event OrderCreatedEvent) error {
	event.EventID = uuid.New().String()
	event.EventTime = time.Now()
	return p.publish(OrderCreatedTopic, event.ReceiptID, event, logrus.Fields{
		"order_id":   event.OrderID,
		"receipt_id": event.ReceiptID,
	})
}

func (p *KafkaProducer) PublishTrackingUpdated(event TrackingUpdatedEvent) error {
	event.EventID = uuid.New().String()
	event.EventTime = time.Now()
	return p.publish(TrackingUpdatedTopic, strconv.FormatInt(event.OrderID, 10), event, logrus.Fields{
		"order_id": event.OrderID,
		"status":   event.Status,
	})
}

func (p *KafkaProducer) publish(topic, key string, event interface{}, fields logrus.Fields) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("Failed to send message to Kafka")
		return err
	}

	fields["topic"] = topic
	fields["partition"] = partition
	fields["offset"] = offset
	p.logger.WithFields(fields).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
