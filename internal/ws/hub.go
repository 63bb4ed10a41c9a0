package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/pkg/logger"
)

// ==================== 房间准入 ====================

// RoomAuthorizer 房间准入检查，由业务层实现
// 商品房间公开，订单/配送/会话房间仅参与方可进
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID int64, role, room string) (bool, error)
}

// ==================== Hub ====================

// Hub 单进程事件中继：客户端订阅房间，业务层向房间广播
// 不持久化、不补发，掉线丢失的事件由客户端重连后重新订阅补偿
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	auth RoomAuthorizer
}

// NewHub 创建事件中继
func NewHub(auth RoomAuthorizer) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		auth:    auth,
	}
}

// Register 接入新连接并自动加入用户专属房间
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.joinLocked(client, RoomUser(client.UserID))
	h.mu.Unlock()

	middleware.WSConnInc()
}

// Unregister 移除连接并退出全部房间，可重复调用
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	h.mu.Unlock()

	middleware.WSConnDec()
	client.shutdown()
}

// Subscribe 校验房间名与准入后加入房间
func (h *Hub) Subscribe(ctx context.Context, client *Client, room string) error {
	if _, _, ok := ParseRoom(room); !ok {
		return ErrBadRoom
	}

	allowed, err := h.auth.CanJoin(ctx, client.UserID, client.Role, room)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRoomForbidden
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return ErrClientGone
	}
	h.joinLocked(client, room)
	return nil
}

// Unsubscribe 退出房间，未订阅时为空操作
func (h *Hub) Unsubscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, room)
}

// Publish 向房间广播事件
// 出站缓冲写不进的慢客户端直接踢掉，等它重连重订
func (h *Hub) Publish(room, event string, data interface{}) {
	frame := &ServerFrame{
		Event: event,
		Room:  room,
		Data:  data,
		Ts:    time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.L().Error("ws 事件序列化失败", zap.String("event", event), zap.Error(err))
		return
	}

	var stalled []*Client
	h.mu.RLock()
	for client := range h.rooms[room] {
		select {
		case client.send <- payload:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		logger.L().Warn("ws 客户端消费过慢，断开连接",
			zap.String("client_id", client.ID),
			zap.Int64("user_id", client.UserID),
			zap.String("room", room))
		h.Unregister(client)
	}
}

// RoomSize 房间当前连接数
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount 在线连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// joinLocked / leaveLocked 调用方须持有写锁
func (h *Hub) joinLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// ==================== 错误定义 ====================

var (
	ErrBadRoom       = errors.New("malformed room name")
	ErrRoomForbidden = errors.New("not allowed to join this room")
	ErrClientGone    = errors.New("client already disconnected")
)
