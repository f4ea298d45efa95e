package kafka

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/itsmessk/infoziant-courses/logger"

	"github.com/segmentio/kafka-go"
)

var (
	producer      *kafka.Writer
	producerMutex sync.Mutex
	brokerList    []string
)

// InitProducer initializes a Kafka writer for the given comma-separated
// broker list. An empty list disables eventing entirely.
func InitProducer(brokers string) {
	producerMutex.Lock()
	defer producerMutex.Unlock()

	if brokers == "" {
		logger.Info("Kafka is disabled (KAFKA_BROKERS is empty)")
		return
	}

	var validBrokers []string
	for _, b := range strings.Split(brokers, ",") {
		if b := strings.TrimSpace(b); b != "" {
			validBrokers = append(validBrokers, b)
		}
	}

	if len(validBrokers) == 0 {
		logger.Warn("No valid Kafka brokers configured")
		return
	}

	brokerList = validBrokers
	ensureTopicsExist(validBrokers)

	producer = &kafka.Writer{
		Addr:         kafka.TCP(validBrokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info("Kafka producer initialized. Brokers=%v", validBrokers)
}

// ensureTopicsExist creates the topics we publish to if they don't already
// exist. Runs in the background so startup never blocks on a slow broker.
func ensureTopicsExist(brokers []string) {
	go func() {
		maxRetries := 5
		for attempt := 0; attempt < maxRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(time.Duration(math.Pow(2, float64(attempt))) * time.Second)
			} else {
				time.Sleep(1 * time.Second)
			}

			conn, err := kafka.Dial("tcp", brokers[0])
			if err != nil {
				if attempt == maxRetries-1 {
					logger.Warn("Could not connect to Kafka broker for topic creation after %d attempts: %v", maxRetries, err)
				}
				continue
			}

			requiredTopics := []string{"payments", "emails"}
			created := 0
			for _, topic := range requiredTopics {
				err := conn.CreateTopics(kafka.TopicConfig{
					Topic:             topic,
					NumPartitions:     1,
					ReplicationFactor: 1,
				})
				if err == nil || strings.Contains(err.Error(), "already exists") {
					created++
				}
			}
			conn.Close()

			if created == len(requiredTopics) {
				logger.Info("Kafka topics ready: %v", requiredTopics)
				return
			}
		}
	}()
}

// Publish marshals value to JSON and publishes it to the given topic with
// key. Best-effort: retries three times with exponential backoff and gives
// up with the last error.
func Publish(topic, key string, value interface{}) error {
	producerMutex.Lock()
	defer producerMutex.Unlock()

	if producer == nil {
		logger.Warn("Kafka producer not initialized, skipping publish to topic: %s", topic)
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("Error marshaling Kafka message: %v", err)
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := producer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < 2 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logger.Warn("Kafka publish attempt %d/3 failed, retrying in %v: %v", attempt+1, backoff, err)
			time.Sleep(backoff)
		} else {
			logger.Error("Kafka publish failed after 3 attempts: %v", err)
		}
	}

	return lastErr
}

// Close gracefully closes the Kafka producer.
func Close() error {
	producerMutex.Lock()
	defer producerMutex.Unlock()

	if producer != nil {
		return producer.Close()
	}
	return nil
}
