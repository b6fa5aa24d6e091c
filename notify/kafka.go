package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Kafka 把事件发布到Kafka主题，消息key为接收人ID，同一用户的事件保持顺序
type Kafka struct {
	writer *kafka.Writer
}

// NewKafkaWriter 创建通知主题的writer
// 异步写入：WriteMessages只负责入队，请求协程不等待broker确认，发送失败在Completion里记录
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 5 * time.Millisecond,
		WriteTimeout: 3 * time.Second,
		MaxAttempts:  3,
		Async:        true,
		Completion:   logFailed,
	}
}

// logFailed 记录异步发送失败的消息
func logFailed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		log.Warn().Err(err).Str("key", string(msg.Key)).Str("event_id", header(msg, "event_id")).Msg("通知事件发送失败")
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// NewKafka 创建Kafka发布者
func NewKafka(writer *kafka.Writer) *Kafka {
	return &Kafka{writer: writer}
}

// message 把事件编码为Kafka消息
func message(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "序列化通知事件失败")
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.RecipientID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}, nil
}

// Publish 把事件交给writer，异步模式下只返回入队错误
func (k *Kafka) Publish(ctx context.Context, event Event) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "发送通知事件到%s失败", k.writer.Topic)
	}
	return nil
}

// Close 刷出缓冲中的消息并关闭writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
