package notify

import (
	"errors"
	"log"
	"sync"
	"time"

	"go-repo-hub/internal/interfaces"

	"github.com/gorilla/websocket"
)

var errSendBufferFull = errors.New("client send buffer is full")

const (
	writeWait      = 10 * time.Second    // 写超时
	pongWait       = 60 * time.Second    // 等待pong的最大时间
	pingPeriod     = (pongWait * 9) / 10 // 发送ping的周期
	maxMessageSize = 512                 // 入站消息最大长度
)

// Client 一条已鉴权的事件订阅连接
type Client struct {
	username string
	admin    bool
	Conn     *websocket.Conn
	Send     chan []byte
	mu       sync.Mutex
	manager  interfaces.EventNotifier
}

func NewClient(username string, admin bool, conn *websocket.Conn, manager interfaces.EventNotifier) *Client {
	return &Client{
		username: username,
		admin:    admin,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		manager:  manager,
	}
}

func (c *Client) GetUsername() string {
	return c.username
}

func (c *Client) IsAdmin() bool {
	return c.admin
}

// QueueBytes 把事件数据排入发送队列
func (c *Client) QueueBytes(data []byte) error {
	select {
	case c.Send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) Close() {
	c.Conn.Close()
}

// ReadPump 事件流是单向的 读循环只负责pong和连接关闭
func (c *Client) ReadPump() {
	defer func() {
		c.manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: unexpected close error for user %s: %v", c.username, err)
			}
			break
		}
		// 订阅端发来的内容一律忽略
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				// Send 通道已关闭
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, data)
			c.mu.Unlock()
			if err != nil {
				log.Printf("error: failed to write event for user %s: %v", c.username, err)
				return
			}

		case <-ticker.C:
			c.mu.Lock()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
