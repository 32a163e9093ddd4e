// Package messaging 基于 Kafka 的领域事件发布
package messaging

import (
	"context"
	"fmt"

	"github.com/lumitrade/exchange/pkg/mq"
)

// KafkaEventPublisher 将领域事件写入 Kafka
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaEventPublisher 创建事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// Publish 发布一条事件到指定主题
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	if err := p.producer.SendMessage(ctx, topic, key, event); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}
	return nil
}
