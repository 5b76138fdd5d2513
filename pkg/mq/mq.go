// Package mq 基于RabbitMQ的事件发布
//
// 借阅/归还成功后发布领域事件到topic交换机（默认library.events），
// 下游按routing key订阅（如book.*）。发布失败只记日志，不影响主流程。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/metrics"
)

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Close() error
}

// channel amqp.Channel中发布用到的方法（便于测试替换）
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher RabbitMQ发布者
// amqp.Channel不是并发安全的，Publish用互斥锁串行化
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  channel
	exchange string
	now      func() time.Time
}

// NewRabbitPublisher 连接RabbitMQ并声明持久化的topic交换机
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	// durable=true, autoDelete=false, internal=false, noWait=false
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	zap.L().Info("事件发布者已连接", zap.String("exchange", exchange))

	return newRabbitPublisher(conn, ch, exchange), nil
}

func newRabbitPublisher(conn *amqp.Connection, ch channel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		now:      time.Now,
	}
}

// Publish 以JSON持久化消息发布
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
	})
	p.mu.Unlock()

	metrics.ObservePublish(p.exchange, routingKey, err)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	zap.L().Debug("事件已发布", zap.String("routing_key", routingKey), zap.ByteString("body", body))
	return nil
}

// Close 关闭Channel和连接
func (p *RabbitPublisher) Close() error {
	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NoopPublisher mq.enabled=false时使用，丢弃所有事件
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
