package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// stubAuthorizer 按白名单放行
type stubAuthorizer struct {
	allowed map[string]bool
	err     error
}

func (a *stubAuthorizer) CanJoin(_ context.Context, _ int64, _ string, room string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.allowed[room], nil
}

func allowAll() *stubAuthorizer {
	return &stubAuthorizer{allowed: map[string]bool{}, err: nil}
}

func (a *stubAuthorizer) allow(rooms ...string) *stubAuthorizer {
	for _, room := range rooms {
		a.allowed[room] = true
	}
	return a
}

// 不启动泵循环时 conn 不会被触碰，测试里传 nil 即可

func TestHub_RegisterAutoJoinsUserRoom(t *testing.T) {
	hub := NewHub(allowAll())
	client := newClient(hub, nil, 42, "customer")

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.ClientCount())
	}
	if hub.RoomSize(RoomUser(42)) != 1 {
		t.Error("注册后应自动加入用户专属房间")
	}
}

func TestHub_SubscribeChecksRoomAndAuth(t *testing.T) {
	auth := allowAll().allow(RoomProduct(7))
	hub := NewHub(auth)
	client := newClient(hub, nil, 1, "customer")
	hub.Register(client)
	ctx := context.Background()

	if err := hub.Subscribe(ctx, client, "not-a-room"); !errors.Is(err, ErrBadRoom) {
		t.Errorf("非法房间名应 ErrBadRoom, got %v", err)
	}
	if err := hub.Subscribe(ctx, client, RoomOrder(9)); !errors.Is(err, ErrRoomForbidden) {
		t.Errorf("未授权房间应 ErrRoomForbidden, got %v", err)
	}
	if err := hub.Subscribe(ctx, client, RoomProduct(7)); err != nil {
		t.Fatalf("授权房间订阅失败: %v", err)
	}
	if hub.RoomSize(RoomProduct(7)) != 1 {
		t.Error("订阅后房间应有一个成员")
	}

	// 已断开的连接不能再订阅
	hub.Unregister(client)
	if err := hub.Subscribe(ctx, client, RoomProduct(7)); !errors.Is(err, ErrClientGone) {
		t.Errorf("已注销连接应 ErrClientGone, got %v", err)
	}
}

func TestHub_PublishReachesRoomMembers(t *testing.T) {
	auth := allowAll().allow(RoomProduct(3))
	hub := NewHub(auth)
	ctx := context.Background()

	member := newClient(hub, nil, 1, "customer")
	outsider := newClient(hub, nil, 2, "customer")
	hub.Register(member)
	hub.Register(outsider)
	if err := hub.Subscribe(ctx, member, RoomProduct(3)); err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	hub.Publish(RoomProduct(3), EventInventoryUpdate, map[string]int{"stock": 5})

	select {
	case payload := <-member.send:
		var frame ServerFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("下行帧解析失败: %v", err)
		}
		if frame.Event != EventInventoryUpdate || frame.Room != RoomProduct(3) {
			t.Errorf("frame = %s@%s, want %s@%s", frame.Event, frame.Room, EventInventoryUpdate, RoomProduct(3))
		}
		if frame.Ts == 0 {
			t.Error("帧应带毫秒时间戳")
		}
	default:
		t.Fatal("房间成员应收到事件")
	}

	select {
	case <-outsider.send:
		t.Fatal("未订阅的连接不应收到事件")
	default:
	}
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	auth := allowAll().allow(RoomProduct(3))
	hub := NewHub(auth)
	client := newClient(hub, nil, 1, "customer")
	hub.Register(client)
	if err := hub.Subscribe(context.Background(), client, RoomProduct(3)); err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
	if hub.RoomSize(RoomProduct(3)) != 0 || hub.RoomSize(RoomUser(1)) != 0 {
		t.Error("注销后应退出全部房间")
	}

	// 幂等
	hub.Unregister(client)
}

func TestHub_SlowClientGetsDropped(t *testing.T) {
	auth := allowAll().allow(RoomProduct(3))
	hub := NewHub(auth)
	client := newClient(hub, nil, 1, "customer")
	hub.Register(client)
	if err := hub.Subscribe(context.Background(), client, RoomProduct(3)); err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	// 没有 writePump 消费，塞满出站缓冲后再发一条
	for i := 0; i <= sendBufferSize; i++ {
		hub.Publish(RoomProduct(3), EventInventoryUpdate, map[string]int{"seq": i})
	}

	if hub.ClientCount() != 0 {
		t.Error("缓冲写满的慢客户端应被踢掉")
	}
}

func TestParseRoom(t *testing.T) {
	cases := []struct {
		room   string
		prefix string
		id     int64
		ok     bool
	}{
		{"product:12", RoomPrefixProduct, 12, true},
		{"order:1", RoomPrefixOrder, 1, true},
		{"user:99", RoomPrefixUser, 99, true},
		{"conversation:5", RoomPrefixConversation, 5, true},
		{"product:0", "", 0, false},
		{"product:-3", "", 0, false},
		{"product:abc", "", 0, false},
		{"ledger:1", "", 0, false},
		{"product", "", 0, false},
		{"", "", 0, false},
	}
	for _, tc := range cases {
		prefix, id, ok := ParseRoom(tc.room)
		if prefix != tc.prefix || id != tc.id || ok != tc.ok {
			t.Errorf("ParseRoom(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.room, prefix, id, ok, tc.prefix, tc.id, tc.ok)
		}
	}
}
