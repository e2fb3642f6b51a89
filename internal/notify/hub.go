package notify

import (
	"encoding/json"
	"errors"

	"go-repo-hub/internal/event"
	"go-repo-hub/internal/interfaces"
	"go-repo-hub/pkg/logger"

	"go.uber.org/zap"
)

// Hub 基于Go通道的单实例事件分发器
// 事件投递给所属仓库的所有者和所有管理员连接
type Hub struct {
	clients    map[string]interfaces.Client
	events     chan *event.Event
	register   chan interfaces.Client
	unregister chan interfaces.Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]interfaces.Client),
		events:     make(chan *event.Event, 256),
		register:   make(chan interfaces.Client),
		unregister: make(chan interfaces.Client),
	}
}

func (h *Hub) Register(client interfaces.Client) {
	h.register <- client
}

func (h *Hub) Unregister(client interfaces.Client) {
	h.unregister <- client
}

// Notify 把事件排入分发队列
// 队列满时丢弃事件 通知信道永远不能阻塞业务请求
func (h *Hub) Notify(ev *event.Event) error {
	select {
	case h.events <- ev:
		return nil
	default:
		logger.L.Warn("Hub event channel full. Dropping event.",
			zap.String("type", ev.Type), zap.String("fileID", ev.FileID))
		return errors.New("hub event channel is full")
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			// 同一用户重复连接时替换旧连接
			if old, ok := h.clients[client.GetUsername()]; ok && old != client {
				old.Close()
			}
			h.clients[client.GetUsername()] = client
			logger.L.Info("Client registered", zap.String("username", client.GetUsername()))

		case client := <-h.unregister:
			if registered, ok := h.clients[client.GetUsername()]; ok && registered == client {
				delete(h.clients, client.GetUsername())
				client.Close()
				logger.L.Info("Client unregistered", zap.String("username", client.GetUsername()))
			}

		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev *event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.L.Error("Failed to marshal event", zap.Error(err))
		return
	}

	for username, client := range h.clients {
		if !shouldReceive(client, ev) {
			continue
		}
		if err := client.QueueBytes(data); err != nil {
			logger.L.Warn("Failed to queue event to client",
				zap.String("username", username), zap.Error(err))
		}
	}
}

// 事件只对仓库所有者和管理员可见
func shouldReceive(client interfaces.Client, ev *event.Event) bool {
	return client.IsAdmin() || client.GetUsername() == ev.Owner
}
