package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 配送状态常量 ====================

// DeliveryStatus 配送状态
const (
	DeliveryStatusScheduled = "scheduled"  // 已排期
	DeliveryStatusInTransit = "in_transit" // 运输中
	DeliveryStatusDelivered = "delivered"  // 已送达
	DeliveryStatusFailed    = "failed"     // 配送失败
)

// deliveryTransitions 合法状态流转表，失败后可重新排期
var deliveryTransitions = map[string][]string{
	DeliveryStatusScheduled: {DeliveryStatusInTransit, DeliveryStatusFailed},
	DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusFailed},
	DeliveryStatusFailed:    {DeliveryStatusScheduled},
}

// ==================== Delivery 配送单 ====================

// Delivery 配送单，下单时按供应商拆分，一个订单产生多条
type Delivery struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64 `gorm:"index;not null" json:"order_id"`
	SupplierID int64 `gorm:"index;not null" json:"supplier_id"`

	Status string `gorm:"size:20;index;default:scheduled" json:"status"`

	// 配送时间窗（客户或供应商协商后更新）
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`

	// 收货地址快照（PostgreSQL JSONB）
	Address datatypes.JSONMap `gorm:"type:jsonb" json:"address"`

	// 该供应商分摊的配送费（分为单位存储）
	FeeCents int64 `gorm:"default:0" json:"fee_cents"`

	// 司机与车辆信息
	DriverName    string `gorm:"size:100" json:"driver_name"`
	DriverPhone   string `gorm:"size:32" json:"driver_phone"`
	VehicleReg    string `gorm:"size:32" json:"vehicle_reg"`

	// 签收凭证（照片 URL）
	ProofURL string `gorm:"size:500" json:"proof_url"`

	// 失败原因
	FailureReason string `gorm:"size:500" json:"failure_reason"`

	DeliveredAt *time.Time `json:"delivered_at"`

	// 时间窗提醒发送时间（定时任务去重用）
	ReminderSentAt *time.Time `json:"-"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// GetFee 获取配送费（元）
func (d *Delivery) GetFee() float64 {
	return float64(d.FeeCents) / 100
}

// CanTransitionTo 检查状态流转是否合法
func (d *Delivery) CanTransitionTo(next string) bool {
	for _, s := range deliveryTransitions[d.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsDone 检查配送是否已完成
func (d *Delivery) IsDone() bool {
	return d.Status == DeliveryStatusDelivered
}

// WindowUpcoming 检查时间窗是否在未来 within 内开始
func (d *Delivery) WindowUpcoming(now time.Time, within time.Duration) bool {
	if d.WindowStart == nil {
		return false
	}
	start := *d.WindowStart
	return start.After(now) && start.Before(now.Add(within))
}
