package notify

import (
	"errors"

	"go-repo-hub/internal/interfaces"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/logger"

	"go.uber.org/zap"
)

// CreateHub 根据配置创建相应的事件分发器
func CreateHub() (interfaces.EventNotifier, error) {
	provider := config.GlobalConfig.Messaging.Provider
	logger.L.Info("Creating notifier with messaging provider", zap.String("provider", provider))

	switch provider {
	case "channel", "":
		// 单实例部署 基于Go通道的Hub
		return NewHub(), nil

	case "kafka":
		// 多实例部署 通过Kafka扇出
		return NewKafkaHub()

	default:
		return nil, errors.New("unsupported messaging provider")
	}
}

// 启动事件分发器
func StartHub(hub interfaces.EventNotifier) error {
	switch h := hub.(type) {
	case *Hub:
		go h.Run()
		return nil
	case *KafkaHub:
		h.StartConsumer()
		return nil
	default:
		return errors.New("unknown notifier type")
	}
}
