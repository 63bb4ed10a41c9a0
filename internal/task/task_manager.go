package task

import (
	"context"
	"time"

	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/logger"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理平台定时任务
// 管理范围：促销下线、尾货过期、配送提醒
type TaskManager struct {
	promoTask    *PromotionSweepTask
	surplusTask  *SurplusExpiryTask
	reminderTask *DeliveryReminderTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	// Repositories
	PromoRepo    repository.PromotionRepository
	SurplusRepo  repository.SurplusRepository
	DeliveryRepo repository.DeliveryRepository
	OrderRepo    repository.OrderRepository
	CustomerRepo repository.CustomerRepository
	SupplierRepo repository.SupplierRepository

	// Services
	Notifications *service.NotificationService
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 促销下线
	PromoEnabled bool
	PromoSpec    string

	// 尾货过期
	SurplusEnabled bool
	SurplusSpec    string

	// 配送提醒
	ReminderEnabled  bool
	ReminderSpec     string
	ReminderLeadTime time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		PromoEnabled: true,
		PromoSpec:    "0 */5 * * * *",

		SurplusEnabled: true,
		SurplusSpec:    "0 */10 * * * *",

		ReminderEnabled:  true,
		ReminderSpec:     "0 */15 * * * *",
		ReminderLeadTime: 24 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	// 促销下线任务
	if cfg.PromoEnabled && deps.PromoRepo != nil {
		tm.promoTask = NewPromotionSweepTask(deps.PromoRepo, cfg.PromoSpec)
	}

	// 尾货过期任务
	if cfg.SurplusEnabled && deps.SurplusRepo != nil {
		tm.surplusTask = NewSurplusExpiryTask(deps.SurplusRepo, cfg.SurplusSpec)
	}

	// 配送提醒任务
	if cfg.ReminderEnabled && deps.Notifications != nil {
		tm.reminderTask = NewDeliveryReminderTask(
			deps.DeliveryRepo,
			deps.OrderRepo,
			deps.CustomerRepo,
			deps.SupplierRepo,
			deps.Notifications,
			cfg.ReminderSpec,
		)
		tm.reminderTask.SetLeadTime(cfg.ReminderLeadTime)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	logger.L().Info("正在启动定时任务")

	if tm.promoTask != nil {
		tm.promoTask.Start()
	}
	if tm.surplusTask != nil {
		tm.surplusTask.Start()
	}
	if tm.reminderTask != nil {
		tm.reminderTask.Start()
	}

	logger.L().Info("定时任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	logger.L().Info("正在停止定时任务")

	if tm.promoTask != nil {
		tm.promoTask.Stop()
	}
	if tm.surplusTask != nil {
		tm.surplusTask.Stop()
	}
	if tm.reminderTask != nil {
		tm.reminderTask.Stop()
	}

	logger.L().Info("定时任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerPromotionSweep 触发促销下线
func (tm *TaskManager) TriggerPromotionSweep(ctx context.Context) error {
	if tm.promoTask == nil {
		return ErrTaskDisabled
	}
	tm.promoTask.SweepNow(ctx)
	return nil
}

// TriggerSurplusExpiry 触发尾货过期处理
func (tm *TaskManager) TriggerSurplusExpiry(ctx context.Context) error {
	if tm.surplusTask == nil {
		return ErrTaskDisabled
	}
	tm.surplusTask.ExpireNow(ctx)
	return nil
}

// TriggerDeliveryReminder 触发配送提醒
func (tm *TaskManager) TriggerDeliveryReminder(ctx context.Context) error {
	if tm.reminderTask == nil {
		return ErrTaskDisabled
	}
	tm.reminderTask.RemindNow(ctx)
	return nil
}

// ==================== 状态查询 ====================

// Status 获取任务启用状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"promotion_sweep":   tm.promoTask != nil,
		"surplus_expiry":    tm.surplusTask != nil,
		"delivery_reminder": tm.reminderTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
