package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/itsmessk/infoziant-courses/logger"

	"github.com/segmentio/kafka-go"
)

var (
	consumer        *kafka.Reader
	consumerMutex   sync.Mutex
	consumerRunning bool
	stopConsumer    chan bool
	// emailProcessor handles email.send events pulled off the emails topic
	emailProcessor func(map[string]interface{}) error
)

// InitConsumer initializes a Kafka reader on the emails topic. Queued
// transactional mail is delivered by the registered processor.
func InitConsumer(brokers string) error {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()

	if brokers == "" {
		logger.Info("Kafka consumer is disabled (KAFKA_BROKERS is empty)")
		return nil
	}

	var validBrokers []string
	for _, b := range strings.Split(brokers, ",") {
		if b := strings.TrimSpace(b); b != "" {
			validBrokers = append(validBrokers, b)
		}
	}

	if len(validBrokers) == 0 {
		logger.Warn("No valid Kafka brokers configured for consumer")
		return nil
	}

	consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:          validBrokers,
		Topic:            "emails",
		GroupID:          "infoziant-courses-consumer-group",
		StartOffset:      -1,
		CommitInterval:   time.Second,
		MaxBytes:         10e6,
		SessionTimeout:   20 * time.Second,
		ReadBackoffMin:   100 * time.Millisecond,
		ReadBackoffMax:   1 * time.Second,
		QueueCapacity:    100,
		RebalanceTimeout: 60 * time.Second,
	})

	stopConsumer = make(chan bool)
	logger.Info("Kafka consumer initialized. Brokers=%v, Topic=emails", validBrokers)
	return nil
}

// RegisterEmailProcessor registers the callback that delivers email.send events.
func RegisterEmailProcessor(fn func(map[string]interface{}) error) {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()
	emailProcessor = fn
}

// StartConsumer starts consuming messages in a separate goroutine.
func StartConsumer() {
	consumerMutex.Lock()
	if consumer == nil {
		consumerMutex.Unlock()
		logger.Warn("Consumer not initialized, cannot start")
		return
	}
	if consumerRunning {
		consumerMutex.Unlock()
		logger.Warn("Consumer already running")
		return
	}
	consumerRunning = true
	consumerMutex.Unlock()

	go consumeMessages()
	logger.Info("Kafka consumer started")
}

func consumeMessages() {
	defer func() {
		consumerMutex.Lock()
		consumerRunning = false
		consumerMutex.Unlock()
	}()

	// Allow time for broker to stabilize
	time.Sleep(2 * time.Second)

	for {
		select {
		case <-stopConsumer:
			logger.Info("Consumer stop signal received")
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			msg, err := consumer.ReadMessage(ctx)
			cancel()

			if err != nil {
				if err == context.DeadlineExceeded || err.Error() == "EOF" {
					continue
				}
				if strings.Contains(err.Error(), "Group Coordinator Not Available") {
					time.Sleep(500 * time.Millisecond)
					continue
				}
				time.Sleep(1 * time.Second)
				continue
			}

			if err := handleMessage(msg); err != nil {
				logger.Error("Error handling Kafka message on %s: %v", msg.Topic, err)
			}
		}
	}
}

func handleMessage(msg kafka.Message) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("unmarshaling message: %w", err)
	}

	eventType, ok := event["event"].(string)
	if !ok {
		return fmt.Errorf("message does not contain event type")
	}

	switch eventType {
	case "email.send":
		return handleEmailSend(event)
	default:
		logger.Warn("Unknown event type: %s", eventType)
		return nil
	}
}

func handleEmailSend(event map[string]interface{}) error {
	recipient, ok := event["recipient"].(string)
	if !ok || recipient == "" {
		return fmt.Errorf("invalid recipient in email event")
	}
	if subject, ok := event["subject"].(string); !ok || subject == "" {
		return fmt.Errorf("invalid subject in email event")
	}
	if body, ok := event["body"].(string); !ok || body == "" {
		return fmt.Errorf("invalid body in email event")
	}

	consumerMutex.Lock()
	processor := emailProcessor
	consumerMutex.Unlock()

	if processor == nil {
		return fmt.Errorf("email processor not registered")
	}

	logger.Info("Delivering queued email to %s", recipient)
	return processor(event)
}

// StopConsumer stops the consumer gracefully.
func StopConsumer() error {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()

	if !consumerRunning || consumer == nil {
		return nil
	}

	close(stopConsumer)

	if err := consumer.Close(); err != nil {
		logger.Error("Error closing consumer: %v", err)
		return err
	}

	logger.Info("Kafka consumer stopped")
	return nil
}
