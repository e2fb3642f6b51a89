package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-repo-hub/internal/event"
	"go-repo-hub/internal/interfaces"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaHub 实现interfaces.EventNotifier接口的Kafka版本
// 多实例部署时通过Kafka把事件扇出到所有实例
type KafkaHub struct {
	clients    map[string]interfaces.Client
	clientsMu  sync.RWMutex
	producer   sarama.SyncProducer
	consumer   sarama.ConsumerGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	cfg *config.KafkaConfig
}

// 创建一个新的KafkaHub
func NewKafkaHub() (*KafkaHub, error) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &config.GlobalConfig.Messaging.Kafka

	// 配置Kafka
	kConfig := sarama.NewConfig()
	kConfig.Producer.RequiredAcks = sarama.WaitForAll
	kConfig.Producer.Return.Successes = true
	kConfig.Producer.Retry.Max = 3
	kConfig.Consumer.Return.Errors = true
	kConfig.Version = sarama.V2_8_0_0

	// 创建生产者
	producer, err := sarama.NewSyncProducer(cfg.Brokers, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka producer", zap.Error(err))
		cancel()
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	// 创建消费者组
	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka consumer group", zap.Error(err))
		producer.Close()
		cancel()
		return nil, fmt.Errorf("failed to start Kafka consumer group: %w", err)
	}

	hub := &KafkaHub{
		clients:    make(map[string]interfaces.Client),
		producer:   producer,
		consumer:   consumer,
		ctx:        ctx,
		cancelFunc: cancel,
		cfg:        cfg,
	}

	return hub, nil
}

func (h *KafkaHub) StartConsumer() {
	go h.consumeEvents()
}

// 关闭KafkaHub
func (h *KafkaHub) Close() error {
	h.cancelFunc()

	if err := h.producer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka producer", zap.Error(err))
	}
	if err := h.consumer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka consumer group", zap.Error(err))
	}

	return nil
}

// Register 在Hub中注册客户端
func (h *KafkaHub) Register(client interfaces.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	username := client.GetUsername()
	if old, ok := h.clients[username]; ok && old != client {
		old.Close()
	}
	h.clients[username] = client
	logger.L.Info("Client registered with KafkaHub", zap.String("username", username))
}

// Unregister 从Hub中注销客户端
func (h *KafkaHub) Unregister(client interfaces.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	username := client.GetUsername()
	if registeredClient, ok := h.clients[username]; ok && registeredClient == client {
		client.Close()
		delete(h.clients, username)
		logger.L.Info("Client unregistered from KafkaHub", zap.String("username", username))
	}
}

// 构建Kafka主题名称
func (h *KafkaHub) buildTopicName() string {
	return fmt.Sprintf("%s_sync_events", h.cfg.TopicPrefix)
}

// Notify 把事件发布到Kafka 由各实例的消费循环投递给本地连接
func (h *KafkaHub) Notify(ev *event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.L.Error("Failed to marshal event", zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: h.buildTopicName(),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = h.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.L.Error("Failed to publish event to Kafka", zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (h *KafkaHub) consumeEvents() {
	handler := &kafkaConsumerHandler{hub: h}
	topics := []string{h.buildTopicName()}

	// 启动消费循环
	for {
		select {
		case <-h.ctx.Done():
			logger.L.Info("Stopping Kafka consumer")
			return
		default:
			err := h.consumer.Consume(h.ctx, topics, handler)
			if err != nil {
				logger.L.Error("Kafka consumer error", zap.Error(err))
				time.Sleep(5 * time.Second) // 失败时等待一段时间再重试
			}
		}
	}
}

// Kafka消费者处理器
type kafkaConsumerHandler struct {
	hub *KafkaHub
}

// Setup 实现sarama.ConsumerGroupHandler接口
func (h *kafkaConsumerHandler) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup 实现sarama.ConsumerGroupHandler接口
func (h *kafkaConsumerHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 实现sarama.ConsumerGroupHandler接口
func (h *kafkaConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.handleEvent(message.Value)
		// 标记消息已处理
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *kafkaConsumerHandler) handleEvent(data []byte) {
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		logger.L.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	h.hub.clientsMu.RLock()
	targets := make([]interfaces.Client, 0, len(h.hub.clients))
	for _, client := range h.hub.clients {
		if shouldReceive(client, &ev) {
			targets = append(targets, client)
		}
	}
	h.hub.clientsMu.RUnlock()

	for _, client := range targets {
		if err := client.QueueBytes(data); err != nil {
			logger.L.Warn("Failed to queue event to client",
				zap.String("username", client.GetUsername()), zap.Error(err))
		}
	}
}
