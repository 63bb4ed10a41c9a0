package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomerType 客户类型
const (
	CustomerTypeIndividual = "individual" // 个人（零售）
	CustomerTypeTrade      = "trade"      // 企业（承建商/工程队，可开通赊购）
)

// Customer 采购方档案
type Customer struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"uniqueIndex;not null" json:"user_id"`

	Name         string `gorm:"size:255;not null" json:"name"`
	CustomerType string `gorm:"size:20;default:individual" json:"customer_type"`

	// 企业客户信息
	CompanyName string `gorm:"size:255" json:"company_name"`
	TaxNumber   string `gorm:"size:64" json:"tax_number"`

	// 默认收货地址（PostgreSQL JSONB）
	DefaultAddress datatypes.JSONMap `gorm:"type:jsonb" json:"default_address"`

	// 赊购额度与已用额度（分为单位存储，仅企业客户）
	CreditLimitCents int64 `gorm:"default:0" json:"credit_limit_cents"`
	CreditUsedCents  int64 `gorm:"default:0" json:"credit_used_cents"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

// GetCreditLimit 获取赊购额度（元）
func (c *Customer) GetCreditLimit() float64 {
	return float64(c.CreditLimitCents) / 100
}

// AvailableCreditCents 剩余可用赊购额度（分）
func (c *Customer) AvailableCreditCents() int64 {
	return c.CreditLimitCents - c.CreditUsedCents
}

// IsTrade 检查是否企业客户
func (c *Customer) IsTrade() bool {
	return c.CustomerType == CustomerTypeTrade
}

// CanUseTradeCredit 检查赊购额度是否足够
func (c *Customer) CanUseTradeCredit(amountCents int64) bool {
	return c.IsTrade() && c.AvailableCreditCents() >= amountCents
}
