// Package mq 聊天消息的 Kafka 归档
// 只做生产端:落库成功的消息发布到归档主题,供离线分析等下游消费
// 归档失败只记日志,不影响在线投递
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	myconfig "vesper_chat_server/internal/config"
	"vesper_chat_server/internal/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaArchiver 归档生产者,实现 chat.MessageArchiver
type KafkaArchiver struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaArchiver 根据配置创建归档器
// messageMode 不是 "kafka" 时返回 nil,调用方按未启用处理
func NewKafkaArchiver() *KafkaArchiver {
	kafkaConfig := myconfig.GetConfig().KafkaConfig
	if kafkaConfig.MessageMode != "kafka" {
		return nil
	}
	timeout := kafkaConfig.Timeout
	if timeout <= 0 {
		timeout = 5
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConfig.HostPort),
		Topic:                  kafkaConfig.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	return &KafkaArchiver{
		writer:  writer,
		timeout: timeout * time.Second,
	}
}

// CreateTopic 创建归档主题,已存在时 kafka 端幂等处理
func CreateTopic() error {
	kafkaConfig := myconfig.GetConfig().KafkaConfig
	conn, err := kafka.Dial("tcp", kafkaConfig.HostPort)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             kafkaConfig.ChatTopic,
		NumPartitions:     kafkaConfig.Partition,
		ReplicationFactor: 1,
	})
}

// Archive 发布一条已落库的消息
// key 用发送者 ID,同一发送者的消息落在同一分区,保持分区内有序
func (a *KafkaArchiver) Archive(message *model.Message) {
	value, err := json.Marshal(message)
	if err != nil {
		zap.L().Error("归档消息序列化失败", zap.Int64("message_id", message.ID), zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		err := a.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(strconv.FormatInt(message.SenderID, 10)),
			Value: value,
		})
		if err != nil {
			zap.L().Error("消息归档失败", zap.Int64("message_id", message.ID), zap.Error(err))
		}
	}()
}

// Close 关闭底层 writer
func (a *KafkaArchiver) Close() {
	if err := a.writer.Close(); err != nil {
		zap.L().Error("归档器关闭失败", zap.Error(err))
	}
}
