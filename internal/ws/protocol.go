package ws

import (
	"fmt"
	"strconv"
	"strings"
)

// ==================== 事件定义 ====================

// 服务端推送事件名
const (
	EventInventoryUpdate     = "inventory_update"      // 商品库存变化
	EventOrderCreated        = "order_created"         // 新订单（推给供应商）
	EventOrderStatusChanged  = "order_status_changed"  // 订单状态变化
	EventDeliveryUpdate      = "delivery_update"       // 配送排期/状态变化
	EventChatMessageReceived = "chat_message_received" // 新私信
	EventNotificationNew     = "notification_new"      // 新站内通知
	EventSupplierApproved    = "supplier_approved"     // 入驻审核通过
)

// 协议层回执事件
const (
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
)

// 客户端动作
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ==================== 房间命名 ====================

// 房间前缀，格式 {prefix}:{id}
const (
	RoomPrefixProduct      = "product"
	RoomPrefixOrder        = "order"
	RoomPrefixDelivery     = "delivery"
	RoomPrefixConversation = "conversation"
	RoomPrefixUser         = "user"
)

// RoomProduct 商品房间（公开，库存播报）
func RoomProduct(id int64) string {
	return fmt.Sprintf("%s:%d", RoomPrefixProduct, id)
}

// RoomOrder 订单房间（参与方）
func RoomOrder(id int64) string {
	return fmt.Sprintf("%s:%d", RoomPrefixOrder, id)
}

// RoomDelivery 配送房间（参与方）
func RoomDelivery(id int64) string {
	return fmt.Sprintf("%s:%d", RoomPrefixDelivery, id)
}

// RoomConversation 会话房间（双方）
func RoomConversation(id int64) string {
	return fmt.Sprintf("%s:%d", RoomPrefixConversation, id)
}

// RoomUser 用户专属房间，连接建立时自动加入
func RoomUser(userID int64) string {
	return fmt.Sprintf("%s:%d", RoomPrefixUser, userID)
}

// ParseRoom 拆分房间名，非法格式返回 ok=false
func ParseRoom(room string) (prefix string, id int64, ok bool) {
	parts := strings.SplitN(room, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	switch parts[0] {
	case RoomPrefixProduct, RoomPrefixOrder, RoomPrefixDelivery, RoomPrefixConversation, RoomPrefixUser:
		return parts[0], id, true
	}
	return "", 0, false
}

// ==================== 帧定义 ====================

// ClientFrame 客户端上行帧
type ClientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// ServerFrame 服务端下行帧
type ServerFrame struct {
	Event string      `json:"event"`
	Room  string      `json:"room,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Ts    int64       `json:"ts"`
}
