package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/pkg/logger"
	"buildmart_dev_v1_202608/pkg/response"
)

// ==================== 连接参数 ====================

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 512 // 上行帧只有订阅指令
	sendBufferSize = 64  // 出站缓冲，写满视为慢客户端
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域由 CORS 中间件统一把关，这里不再限制 Origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ==================== Client ====================

// Client 一条 WebSocket 连接
type Client struct {
	ID     string
	UserID int64
	Role   string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	// 已加入的房间，由 hub.mu 保护
	rooms map[string]struct{}

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, role string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ==================== 握手 ====================

// ServeWS 升级 HTTP 连接，?token= 携带与 REST 相同的 JWT
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := middleware.ParseToken(c.Query("token"))
		if err != nil || claims.Subject != "access" {
			response.AbortUnauthorized(c, "token invalid or expired")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.L().Warn("ws 升级失败", zap.Error(err))
			return
		}

		client := newClient(hub, conn, claims.UserID, claims.Role)
		hub.Register(client)

		logger.L().Debug("ws 连接建立",
			zap.String("client_id", client.ID),
			zap.Int64("user_id", client.UserID),
			zap.String("role", client.Role))

		go client.writePump()
		go client.readPump()
	}
}

// ==================== 泵循环 ====================

// readPump 处理上行订阅指令，连接的生命周期归它管
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.L().Debug("ws 连接异常关闭",
					zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError("", "malformed frame")
			continue
		}

		switch frame.Action {
		case ActionSubscribe:
			if err := c.hub.Subscribe(context.Background(), c, frame.Room); err != nil {
				c.sendError(frame.Room, err.Error())
				continue
			}
			c.sendAck(EventSubscribed, frame.Room)
		case ActionUnsubscribe:
			c.hub.Unsubscribe(c, frame.Room)
			c.sendAck(EventUnsubscribed, frame.Room)
		default:
			c.sendError(frame.Room, "unknown action")
		}
	}
}

// writePump 串行写出，定时 ping 保活
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ==================== 回执帧 ====================

func (c *Client) sendAck(event, room string) {
	c.push(&ServerFrame{Event: event, Room: room, Ts: time.Now().UnixMilli()})
}

func (c *Client) sendError(room, message string) {
	c.push(&ServerFrame{
		Event: EventError,
		Room:  room,
		Data:  map[string]string{"message": message},
		Ts:    time.Now().UnixMilli(),
	})
}

// push 尽力投递，缓冲已满直接丢弃回执
func (c *Client) push(frame *ServerFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
