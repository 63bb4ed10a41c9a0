package service

// EventPublisher 实时事件出口，由 WebSocket Hub 实现
// 事务内只落库，提交成功后才发布事件
type EventPublisher interface {
	Publish(room, event string, data interface{})
}

// noopPublisher 未接入 Hub 时的空实现，便于单测
type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

// NopPublisher 返回空事件出口
func NopPublisher() EventPublisher {
	return noopPublisher{}
}
