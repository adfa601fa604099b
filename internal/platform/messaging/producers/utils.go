package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	partitionReadAttempts = 5
	partitionReadBackoff  = 2 * time.Second
)

// ensureTopic makes sure the topic exists before a producer starts writing
// to it. Partition metadata can lag right after a broker comes up, so the
// existence check retries before falling through to topic creation.
func ensureTopic(conn *kafka.Conn, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var (
		partitions []kafka.Partition
		readErr    error
	)
	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		partitions, readErr = conn.ReadPartitions(topic)
		if readErr == nil {
			break
		}
		log.Warn("Reading topic partitions failed",
			"topic", topic,
			"attempt", attempt,
			"error", readErr,
		)
		time.Sleep(partitionReadBackoff)
	}

	if len(partitions) > 0 {
		if readErr != nil {
			log.Warn("Topic partitions read partially", "topic", topic, "error", readErr)
		}
		return nil
	}

	if numPartitions <= 0 {
		numPartitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	log.Info("Creating Kafka topic",
		"topic", topic,
		"partitions", numPartitions,
		"replication_factor", replicationFactor,
	)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}); err != nil {
		return fmt.Errorf("creating kafka topic %s: %w", topic, err)
	}
	return nil
}
