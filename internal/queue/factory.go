package queue

import (
	"fmt"

	"github.com/Exarkun1/pylab4/internal/config"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// NewPublisher creates a publisher for the configured backend
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := utils.QueueType(cfg.Type)
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Subject:  cfg.Subject,
		})
	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})
	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = []string{cfg.URL}
		}
		return newKafkaQueue(KafkaConfig{Brokers: brokers})
	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", cfg.Type)
	}
}
