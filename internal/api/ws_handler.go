package api

import (
	"net/http"

	"go-repo-hub/internal/interfaces"
	"go-repo-hub/internal/notify"
	"go-repo-hub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该配置具体的域名
		return true // 允许所有来源
	},
}

// 把认证过的连接接入同步事件通知中心
type WSHandler struct {
	hub interfaces.EventNotifier
}

func NewWSHandler(hub interfaces.EventNotifier) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) HandleConnection(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		logger.L.Error("user not found in context for WebSocket")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "UNAUTHORIZED", "message": "not authenticated"},
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Error("Failed to upgrade WebSocket connection",
			zap.String("username", user.Username), zap.Error(err))
		return
	}
	logger.L.Info("WebSocket connection upgraded", zap.String("username", user.Username))

	client := notify.NewClient(user.Username, user.IsAdmin(), conn, h.hub)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
