package app

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"ridefare/internal/config"
	"ridefare/internal/messaging"
)

// NewEventPublisher connects a synchronous Kafka producer for ride events.
func NewEventPublisher(cfg config.KafkaConfig) (*messaging.KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}

	sc := sarama.NewConfig()
	sc.ClientID = "ridefare"
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return messaging.NewKafkaPublisher(producer, cfg.Topic), nil
}
